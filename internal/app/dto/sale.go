package dto

import (
	"time"

	domainsale "haulshare/internal/domain/sale"
)

type SaleDetail struct {
	ID           string            `json:"id"`
	AssetID      string            `json:"asset_id"`
	BuyerID      string            `json:"buyer_id"`
	SellerID     string            `json:"seller_id"`
	AskingPrice  MoneyDTO          `json:"asking_price"`
	OfferAmount  MoneyDTO          `json:"offer_amount"`
	State        string            `json:"state"`
	History      []HistoryEntryDTO `json:"history"`
	Capabilities CapabilitiesDTO   `json:"capabilities"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func MapSaleDetail(s *domainsale.Sale, caps domainsale.Capabilities) SaleDetail {
	return SaleDetail{
		ID:          string(s.ID),
		AssetID:     s.AssetID,
		BuyerID:     s.BuyerID,
		SellerID:    s.SellerID,
		AskingPrice: MoneyDTO{Amount: s.AskingPrice.Amount, Currency: s.AskingPrice.Currency},
		OfferAmount: MoneyDTO{Amount: s.OfferAmount.Amount, Currency: s.OfferAmount.Currency},
		State:       string(s.State),
		History:     mapHistory(s.History),
		Capabilities: CapabilitiesDTO{
			MessagingEnabled: caps.MessagingEnabled,
			PayoutReleasable: caps.PayoutReleasable,
			ListingHidden:    caps.ListingHidden,
			Terminal:         caps.Terminal,
			Next:             mapStates(caps.Next),
		},
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
