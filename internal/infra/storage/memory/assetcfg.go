package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"haulshare/internal/domain/asset"
)

// AssetConfigProvider resolves per-asset scheduling configuration from an
// in-memory table, optionally seeded from a JSON fixture file.
type AssetConfigProvider struct {
	mu    sync.RWMutex
	items map[string]asset.Scheduling
}

func NewAssetConfigProvider() *AssetConfigProvider {
	return &AssetConfigProvider{items: make(map[string]asset.Scheduling)}
}

func (p *AssetConfigProvider) Scheduling(ctx context.Context, assetID string) (asset.Scheduling, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg, ok := p.items[strings.TrimSpace(assetID)]
	if !ok {
		return asset.Scheduling{}, asset.ErrConfigNotFound
	}
	return cfg, nil
}

func (p *AssetConfigProvider) Put(cfg asset.Scheduling) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[cfg.AssetID] = cfg
}

type assetFixture struct {
	AssetID        string  `json:"asset_id"`
	HostID         string  `json:"host_id"`
	Mode           string  `json:"mode"`
	DefaultPickup  string  `json:"default_pickup"`
	DefaultReturn  string  `json:"default_return"`
	MinDays        int     `json:"min_days"`
	MaxDays        int     `json:"max_days"`
	MinHours       float64 `json:"min_hours"`
	MaxHours       float64 `json:"max_hours"`
	MinNoticeHours int     `json:"min_notice_hours"`
	MaxHorizonDays int     `json:"max_horizon_days"`
}

// LoadFixtures seeds the provider from a JSON array of asset configurations.
func (p *AssetConfigProvider) LoadFixtures(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var fixtures []assetFixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return 0, fmt.Errorf("parse asset fixtures: %w", err)
	}
	for i, f := range fixtures {
		if strings.TrimSpace(f.AssetID) == "" {
			return 0, fmt.Errorf("asset fixture %d: asset_id required", i)
		}
		mode := asset.Mode(strings.ToUpper(strings.TrimSpace(f.Mode)))
		if mode != asset.ModeDaily && mode != asset.ModeHourly {
			return 0, fmt.Errorf("asset fixture %q: unknown mode %q", f.AssetID, f.Mode)
		}
		p.Put(asset.Scheduling{
			AssetID:        f.AssetID,
			HostID:         f.HostID,
			Mode:           mode,
			DefaultPickup:  f.DefaultPickup,
			DefaultReturn:  f.DefaultReturn,
			MinDays:        f.MinDays,
			MaxDays:        f.MaxDays,
			MinHours:       f.MinHours,
			MaxHours:       f.MaxHours,
			MinNoticeHours: f.MinNoticeHours,
			MaxHorizonDays: f.MaxHorizonDays,
		})
	}
	return len(fixtures), nil
}

var _ asset.ConfigProvider = (*AssetConfigProvider)(nil)
