package availability

import (
	"context"
	"errors"
	"time"

	"haulshare/internal/domain/schedule"
)

var ErrBlockNotFound = errors.New("availability: block not found")

// Block is a host-imposed whole-day exclusion for an asset, independent of
// any reservation. Blocks never transition state; they exist until removed.
type Block struct {
	ID        string
	AssetID   string
	HostID    string
	Span      schedule.Interval // always ranged
	Reason    string
	CreatedAt time.Time
}

// BlockRepository persists host blocks.
type BlockRepository interface {
	ByID(ctx context.Context, id string) (*Block, error)
	Create(ctx context.Context, b *Block) error
	Delete(ctx context.Context, id string) error
	ListByAsset(ctx context.Context, assetID string) ([]*Block, error)
}
