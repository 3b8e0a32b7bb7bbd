package dto

import (
	"time"

	"haulshare/internal/domain/lifecycle"
	domainreservation "haulshare/internal/domain/reservation"
	"haulshare/internal/domain/schedule"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type HistoryEntryDTO struct {
	State string    `json:"state"`
	At    time.Time `json:"at"`
	Note  string    `json:"note,omitempty"`
}

type WindowDTO struct {
	Granularity string `json:"granularity"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
}

type CapabilitiesDTO struct {
	AddressMasked    bool     `json:"address_masked"`
	MessagingEnabled bool     `json:"messaging_enabled"`
	CalendarLocked   bool     `json:"calendar_locked,omitempty"`
	PayoutReleasable bool     `json:"payout_releasable"`
	ListingHidden    bool     `json:"listing_hidden,omitempty"`
	Terminal         bool     `json:"terminal"`
	Next             []string `json:"next"`
}

type ReservationDetail struct {
	ID           string            `json:"id"`
	AssetID      string            `json:"asset_id"`
	RenterID     string            `json:"renter_id"`
	HostID       string            `json:"host_id"`
	Window       WindowDTO         `json:"window"`
	Days         int               `json:"days,omitempty"`
	Hours        float64           `json:"hours,omitempty"`
	Pickup       *time.Time        `json:"pickup,omitempty"`
	Return       *time.Time        `json:"return,omitempty"`
	Total        MoneyDTO          `json:"total"`
	Notes        string            `json:"notes,omitempty"`
	State        string            `json:"state"`
	History      []HistoryEntryDTO `json:"history"`
	Capabilities CapabilitiesDTO   `json:"capabilities"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ReservationCollection struct {
	Items []ReservationDetail `json:"items"`
}

func MapWindow(iv schedule.Interval) WindowDTO {
	switch iv.Granularity {
	case schedule.GranularityRanged:
		return WindowDTO{
			Granularity: string(iv.Granularity),
			StartDate:   iv.Start.Format(time.DateOnly),
			EndDate:     iv.End.Format(time.DateOnly),
		}
	case schedule.GranularityTimed:
		start := iv.Start
		end := iv.End
		return WindowDTO{Granularity: string(iv.Granularity), StartAt: &start, EndAt: &end}
	default:
		return WindowDTO{Granularity: string(iv.Granularity)}
	}
}

func mapHistory(entries []lifecycle.HistoryEntry) []HistoryEntryDTO {
	out := make([]HistoryEntryDTO, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryEntryDTO{State: string(h.State), At: h.At, Note: h.Note})
	}
	return out
}

func mapStates(states []lifecycle.State) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, string(s))
	}
	return out
}

func MapReservationDetail(r *domainreservation.Reservation, caps domainreservation.Capabilities) ReservationDetail {
	detail := ReservationDetail{
		ID:       string(r.ID),
		AssetID:  r.AssetID,
		RenterID: r.RenterID,
		HostID:   r.HostID,
		Window:   MapWindow(r.Window),
		Days:     r.Days,
		Hours:    r.Hours,
		Total:    MoneyDTO{Amount: r.Total.Amount, Currency: r.Total.Currency},
		Notes:    r.Notes,
		State:    string(r.State),
		History:  mapHistory(r.History),
		Capabilities: CapabilitiesDTO{
			AddressMasked:    caps.AddressMasked,
			MessagingEnabled: caps.MessagingEnabled,
			CalendarLocked:   caps.CalendarLocked,
			PayoutReleasable: caps.PayoutReleasable,
			Terminal:         caps.Terminal,
			Next:             mapStates(caps.Next),
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if !r.Pickup.IsZero() {
		pickup := r.Pickup
		detail.Pickup = &pickup
	}
	if !r.Return.IsZero() {
		ret := r.Return
		detail.Return = &ret
	}
	return detail
}
