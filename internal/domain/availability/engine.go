package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"haulshare/internal/domain/reservation"
	"haulshare/internal/domain/schedule"
)

// ConflictKind names the data source a candidate window collided with.
type ConflictKind string

const (
	ConflictReservation ConflictKind = "RESERVATION"
	ConflictBlock       ConflictKind = "BLOCK"
)

// ConflictError reports the blocking entity so callers can show a structured
// "range unavailable" response and offer alternate dates.
type ConflictError struct {
	Kind       ConflictKind
	BlockingID string
	Span       schedule.Interval
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("availability: window conflicts with %s %s (%s..%s)",
		e.Kind, e.BlockingID, e.Span.Start.Format(time.RFC3339), e.Span.End.Format(time.RFC3339))
}

// Engine answers availability questions for an asset from two sources:
// reservations in a calendar-committing state and host blocks. It reads only;
// it never mutates either source.
type Engine struct {
	Reservations reservation.Repository
	Blocks       BlockRepository
}

// UnavailableDates enumerates every date inside [from, to] committed by a
// calendar-locking reservation or a host block, sorted ascending without
// duplicates. Empty data yields an empty, non-nil slice. Any source failure
// propagates: ambiguous availability must fail closed, never read as "free".
func (e *Engine) UnavailableDates(ctx context.Context, assetID string, from, to time.Time) ([]string, error) {
	reservations, err := e.Reservations.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	blocks, err := e.Blocks.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, r := range reservations {
		if !reservation.CalendarLocked(r.State) {
			continue
		}
		if !r.Window.IntersectsDates(from, to) {
			continue
		}
		for _, d := range r.Window.DatesWithin(from, to) {
			seen[d] = struct{}{}
		}
	}
	for _, b := range blocks {
		if !b.Span.IntersectsDates(from, to) {
			continue
		}
		for _, d := range b.Span.DatesWithin(from, to) {
			seen[d] = struct{}{}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

// CheckConflict tests a candidate window against the asset's committing
// reservations and blocks, returning a ConflictError describing the first
// blocking entity found, or nil when the window is free. The result is
// advisory until re-confirmed at write time: callers must re-run this check
// immediately before creating a transaction, never rely on a cached answer.
func (e *Engine) CheckConflict(ctx context.Context, assetID string, candidate schedule.Interval) error {
	reservations, err := e.Reservations.ListByAsset(ctx, assetID)
	if err != nil {
		return err
	}
	blocks, err := e.Blocks.ListByAsset(ctx, assetID)
	if err != nil {
		return err
	}
	return Check(reservations, blocks, candidate)
}

// Check is the pure conflict test over already-loaded data. Storage backends
// reuse it under their own write locks to provide the write-time guarantee.
func Check(reservations []*reservation.Reservation, blocks []*Block, candidate schedule.Interval) error {
	for _, r := range reservations {
		if !reservation.CalendarLocked(r.State) {
			continue
		}
		if r.Window.Overlaps(candidate) {
			return &ConflictError{Kind: ConflictReservation, BlockingID: string(r.ID), Span: r.Window}
		}
	}
	for _, b := range blocks {
		if b.Span.Overlaps(candidate) {
			return &ConflictError{Kind: ConflictBlock, BlockingID: b.ID, Span: b.Span}
		}
	}
	return nil
}
