package reservation

import (
	"time"

	"haulshare/internal/domain/lifecycle"
	"haulshare/internal/domain/schedule"
	"haulshare/internal/domain/shared/money"
)

type Requested struct {
	ReservationID ReservationID
	AssetID       string
	RenterID      string
	Window        schedule.Interval
	Total         money.Money
	At            time.Time
}

func (e Requested) EventName() string     { return "reservation.requested" }
func (e Requested) AggregateID() string   { return string(e.ReservationID) }
func (e Requested) OccurredAt() time.Time { return e.At }

type Transitioned struct {
	ReservationID ReservationID
	AssetID       string
	State         lifecycle.State
	Note          string
	At            time.Time
}

func (e Transitioned) EventName() string     { return "reservation.transitioned" }
func (e Transitioned) AggregateID() string   { return string(e.ReservationID) }
func (e Transitioned) OccurredAt() time.Time { return e.At }
