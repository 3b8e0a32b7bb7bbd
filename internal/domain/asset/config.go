package asset

import (
	"context"
	"errors"
)

var ErrConfigNotFound = errors.New("asset: scheduling config not found")

// Mode selects the scheduling granularity an asset is rented in.
type Mode string

const (
	// ModeDaily books whole-day ranges with pickup/return times of day.
	ModeDaily Mode = "DAILY"
	// ModeHourly books sub-day windows on a single date.
	ModeHourly Mode = "HOURLY"
)

// Scheduling is the per-asset configuration consulted when building and
// validating a reservation window.
type Scheduling struct {
	AssetID       string
	HostID        string
	Mode          Mode
	DefaultPickup string // HH:MM, daily mode fallback pickup time
	DefaultReturn string // HH:MM, daily mode fallback return time

	MinDays  int // daily mode, 0 = no floor
	MaxDays  int // daily mode, 0 = no ceiling
	MinHours float64 // hourly mode, 0 = no floor
	MaxHours float64 // hourly mode, 0 = no ceiling

	MinNoticeHours int // lead time required before the window starts
	MaxHorizonDays int // how far into the future a window may start
}

// ConfigProvider resolves the scheduling configuration for an asset.
type ConfigProvider interface {
	Scheduling(ctx context.Context, assetID string) (Scheduling, error)
}
