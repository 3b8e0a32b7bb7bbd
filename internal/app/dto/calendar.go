package dto

import (
	"time"

	"haulshare/internal/domain/availability"
)

type UnavailableDates struct {
	AssetID string   `json:"asset_id"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Dates   []string `json:"dates"`
}

type BlockDTO struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"asset_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func MapBlock(b *availability.Block) BlockDTO {
	return BlockDTO{
		ID:        b.ID,
		AssetID:   b.AssetID,
		StartDate: b.Span.Start.Format(time.DateOnly),
		EndDate:   b.Span.End.Format(time.DateOnly),
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
}
