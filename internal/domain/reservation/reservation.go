package reservation

import (
	"context"
	"errors"
	"time"

	"haulshare/internal/domain/lifecycle"
	"haulshare/internal/domain/schedule"
	"haulshare/internal/domain/shared/events"
	"haulshare/internal/domain/shared/money"
)

var (
	ErrSameParty            = errors.New("reservation: renter and host must differ")
	ErrPartyRequired        = errors.New("reservation: renter and host ids required")
	ErrAssetRequired        = errors.New("reservation: asset id required")
	ErrWindowRequired       = errors.New("reservation: window must carry a valid granularity")
	ErrMetricMismatch       = errors.New("reservation: exactly one of day count or duration must be set")
	ErrNotFound             = errors.New("reservation: not found")
	ErrCancelledNeedsReason = errors.New("reservation: cancellation requires a reason")
	ErrConcurrentUpdate     = errors.New("reservation: concurrent update detected")
)

type ReservationID string

// Lifecycle states of the reservation family.
const (
	StateRequested     lifecycle.State = "REQUESTED"
	StateHostApproved  lifecycle.State = "HOST_APPROVED"
	StatePaid          lifecycle.State = "PAID"
	StateInProgress    lifecycle.State = "IN_PROGRESS"
	StateReturnPending lifecycle.State = "RETURN_PENDING"
	StateCompleted     lifecycle.State = "COMPLETED"
	StateCancelled     lifecycle.State = "CANCELLED"
)

// Transitions is the reservation family table. Every non-terminal state may
// cancel; COMPLETED and CANCELLED are terminal.
var Transitions = lifecycle.Table{
	StateRequested:     {StateHostApproved, StateCancelled},
	StateHostApproved:  {StatePaid, StateCancelled},
	StatePaid:          {StateInProgress, StateCancelled},
	StateInProgress:    {StateReturnPending, StateCancelled},
	StateReturnPending: {StateCompleted, StateCancelled},
	StateCompleted:     {},
	StateCancelled:     {},
}

var machine = lifecycle.NewMachine("reservation", Transitions)

// Machine exposes the family state machine for validation and lookups.
func Machine() *lifecycle.Machine { return machine }

// CancellationRecord is populated only when the reservation reaches CANCELLED.
type CancellationRecord struct {
	Reason string    `json:"reason" bson:"reason"`
	Actor  string    `json:"actor" bson:"actor"`
	At     time.Time `json:"at" bson:"at"`
}

// Reservation is one party's exclusive-access claim on an asset for a window.
type Reservation struct {
	ID       ReservationID
	AssetID  string
	RenterID string
	HostID   string

	Window schedule.Interval
	// Exactly one of Days/Hours is populated, matching Window.Granularity.
	// Both are computed at creation and never recomputed implicitly.
	Days  int
	Hours float64
	// Pickup/Return are the handover instants in daily mode (zero in hourly).
	Pickup time.Time
	Return time.Time

	Total money.Money
	Notes string

	State        lifecycle.State
	History      []lifecycle.HistoryEntry
	Cancellation *CancellationRecord

	ApprovedAt  time.Time
	PaidAt      time.Time
	StartedAt   time.Time
	ReturnedAt  time.Time
	CompletedAt time.Time
	CancelledAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64

	events.EventRecorder
}

// Repository persists reservations. Create must uphold the write-time
// conflict guarantee for the asset; Save must apply compare-and-set on
// Version and reject stale writes.
type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	Create(ctx context.Context, r *Reservation) error
	Save(ctx context.Context, r *Reservation) error
	ListByAsset(ctx context.Context, assetID string) ([]*Reservation, error)
	ListByRenter(ctx context.Context, renterID string) ([]*Reservation, error)
}

type CreateParams struct {
	ID       ReservationID
	AssetID  string
	RenterID string
	HostID   string
	Schedule schedule.Built
	Total    money.Money
	Notes    string
	Now      time.Time
}

// New initializes a reservation in REQUESTED with its first history entry.
func New(params CreateParams) (*Reservation, error) {
	if params.AssetID == "" {
		return nil, ErrAssetRequired
	}
	if params.RenterID == "" || params.HostID == "" {
		return nil, ErrPartyRequired
	}
	if params.RenterID == params.HostID {
		return nil, ErrSameParty
	}
	w := params.Schedule.Window
	switch w.Granularity {
	case schedule.GranularityRanged:
		if params.Schedule.Days < 1 || params.Schedule.Hours != 0 {
			return nil, ErrMetricMismatch
		}
	case schedule.GranularityTimed:
		if params.Schedule.Hours <= 0 || params.Schedule.Days != 0 {
			return nil, ErrMetricMismatch
		}
	default:
		return nil, ErrWindowRequired
	}

	now := params.Now.UTC()
	r := &Reservation{
		ID:        params.ID,
		AssetID:   params.AssetID,
		RenterID:  params.RenterID,
		HostID:    params.HostID,
		Window:    w,
		Days:      params.Schedule.Days,
		Hours:     params.Schedule.Hours,
		Pickup:    params.Schedule.Pickup,
		Return:    params.Schedule.Return,
		Total:     params.Total,
		Notes:     params.Notes,
		State:     StateRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.History = append(r.History, lifecycle.HistoryEntry{State: StateRequested, At: now})
	r.Record(Requested{ReservationID: r.ID, AssetID: r.AssetID, RenterID: r.RenterID, Window: w, Total: r.Total, At: now})
	return r, nil
}

// Apply applies a lifecycle transition: validates against the family table,
// appends history, stamps the well-known timestamp for the state reached, and
// records a domain event. Pure transformation, persistence is the caller's.
func (r *Reservation) Apply(next lifecycle.State, note string, now time.Time) error {
	if err := machine.ValidateTransition(r.State, next); err != nil {
		return err
	}
	now = now.UTC()
	r.State = next
	r.UpdatedAt = now
	r.History = append(r.History, lifecycle.HistoryEntry{State: next, At: now, Note: note})
	switch next {
	case StateHostApproved:
		r.ApprovedAt = now
	case StatePaid:
		r.PaidAt = now
	case StateInProgress:
		r.StartedAt = now
	case StateReturnPending:
		r.ReturnedAt = now
	case StateCompleted:
		r.CompletedAt = now
	case StateCancelled:
		r.CancelledAt = now
	}
	r.Record(Transitioned{ReservationID: r.ID, AssetID: r.AssetID, State: next, Note: note, At: now})
	return nil
}

// Cancel transitions to CANCELLED recording who cancelled and why.
func (r *Reservation) Cancel(reason, actor string, now time.Time) error {
	if reason == "" {
		return ErrCancelledNeedsReason
	}
	if err := r.Apply(StateCancelled, reason, now); err != nil {
		return err
	}
	r.Cancellation = &CancellationRecord{Reason: reason, Actor: actor, At: now.UTC()}
	return nil
}

// Capabilities returns the derived capability snapshot for the current state.
func (r *Reservation) Capabilities() (Capabilities, error) {
	return CapabilitiesFor(r.State)
}
