package sale

import (
	"time"

	"haulshare/internal/domain/lifecycle"
	"haulshare/internal/domain/shared/money"
)

type OfferPlaced struct {
	SaleID  SaleID
	AssetID string
	BuyerID string
	Offer   money.Money
	At      time.Time
}

func (e OfferPlaced) EventName() string     { return "sale.offer_placed" }
func (e OfferPlaced) AggregateID() string   { return string(e.SaleID) }
func (e OfferPlaced) OccurredAt() time.Time { return e.At }

type Transitioned struct {
	SaleID  SaleID
	AssetID string
	State   lifecycle.State
	Note    string
	At      time.Time
}

func (e Transitioned) EventName() string     { return "sale.transitioned" }
func (e Transitioned) AggregateID() string   { return string(e.SaleID) }
func (e Transitioned) OccurredAt() time.Time { return e.At }
