package availability

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"haulshare/internal/domain/lifecycle"
	"haulshare/internal/domain/reservation"
	"haulshare/internal/domain/schedule"
)

type stubReservations struct {
	items []*reservation.Reservation
	err   error
}

func (s *stubReservations) ByID(ctx context.Context, id reservation.ReservationID) (*reservation.Reservation, error) {
	return nil, reservation.ErrNotFound
}
func (s *stubReservations) Create(ctx context.Context, r *reservation.Reservation) error { return nil }
func (s *stubReservations) Save(ctx context.Context, r *reservation.Reservation) error   { return nil }
func (s *stubReservations) ListByAsset(ctx context.Context, assetID string) ([]*reservation.Reservation, error) {
	return s.items, s.err
}
func (s *stubReservations) ListByRenter(ctx context.Context, renterID string) ([]*reservation.Reservation, error) {
	return s.items, s.err
}

type stubBlocks struct {
	items []*Block
	err   error
}

func (s *stubBlocks) ByID(ctx context.Context, id string) (*Block, error) { return nil, ErrBlockNotFound }
func (s *stubBlocks) Create(ctx context.Context, b *Block) error          { return nil }
func (s *stubBlocks) Delete(ctx context.Context, id string) error         { return nil }
func (s *stubBlocks) ListByAsset(ctx context.Context, assetID string) ([]*Block, error) {
	return s.items, s.err
}

func ranged(t *testing.T, startDate, endDate string) schedule.Interval {
	t.Helper()
	start, err := time.Parse(time.DateOnly, startDate)
	if err != nil {
		t.Fatal(err)
	}
	end, err := time.Parse(time.DateOnly, endDate)
	if err != nil {
		t.Fatal(err)
	}
	iv, err := schedule.NewRanged(start, end)
	if err != nil {
		t.Fatal(err)
	}
	return iv
}

func timed(t *testing.T, start, end string) schedule.Interval {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatal(err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		t.Fatal(err)
	}
	iv, err := schedule.NewTimed(s, e)
	if err != nil {
		t.Fatal(err)
	}
	return iv
}

func reservationIn(id string, state lifecycle.State, window schedule.Interval) *reservation.Reservation {
	return &reservation.Reservation{
		ID:      reservation.ReservationID(id),
		AssetID: "asset-1",
		State:   state,
		Window:  window,
	}
}

func TestCheckConflict(t *testing.T) {
	paid := reservationIn("res-paid", reservation.StatePaid, ranged(t, "2025-06-10", "2025-06-12"))
	requested := reservationIn("res-req", reservation.StateRequested, ranged(t, "2025-06-20", "2025-06-25"))
	block := &Block{ID: "blk-1", AssetID: "asset-1", Span: ranged(t, "2025-07-01", "2025-07-03")}

	engine := &Engine{
		Reservations: &stubReservations{items: []*reservation.Reservation{paid, requested}},
		Blocks:       &stubBlocks{items: []*Block{block}},
	}

	tests := []struct {
		name      string
		candidate schedule.Interval
		wantKind  ConflictKind
		wantID    string
	}{
		{"shared boundary date with committed reservation", ranged(t, "2025-06-12", "2025-06-14"), ConflictReservation, "res-paid"},
		{"adjacent to committed reservation is free", ranged(t, "2025-06-13", "2025-06-15"), "", ""},
		{"requested reservation does not block", ranged(t, "2025-06-20", "2025-06-22"), "", ""},
		{"host block conflicts", ranged(t, "2025-07-03", "2025-07-05"), ConflictBlock, "blk-1"},
		{"timed candidate on committed date conflicts", timed(t, "2025-06-11T09:00:00Z", "2025-06-11T12:00:00Z"), ConflictReservation, "res-paid"},
		{"timed candidate on free date passes", timed(t, "2025-06-16T09:00:00Z", "2025-06-16T12:00:00Z"), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.CheckConflict(context.Background(), "asset-1", tt.candidate)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected conflict: %v", err)
				}
				return
			}
			var cerr *ConflictError
			if !errors.As(err, &cerr) {
				t.Fatalf("got %v, want *ConflictError", err)
			}
			if cerr.Kind != tt.wantKind || cerr.BlockingID != tt.wantID {
				t.Fatalf("conflict %s/%s, want %s/%s", cerr.Kind, cerr.BlockingID, tt.wantKind, tt.wantID)
			}
		})
	}
}

func TestCheckConflictTimedPair(t *testing.T) {
	inProgress := reservationIn("res-1", reservation.StateInProgress,
		timed(t, "2025-06-10T09:00:00Z", "2025-06-10T12:00:00Z"))
	engine := &Engine{
		Reservations: &stubReservations{items: []*reservation.Reservation{inProgress}},
		Blocks:       &stubBlocks{},
	}

	free := timed(t, "2025-06-10T12:00:00Z", "2025-06-10T15:00:00Z")
	if err := engine.CheckConflict(context.Background(), "asset-1", free); err != nil {
		t.Fatalf("back-to-back timed windows must not conflict: %v", err)
	}

	overlapping := timed(t, "2025-06-10T11:00:00Z", "2025-06-10T13:00:00Z")
	var cerr *ConflictError
	if err := engine.CheckConflict(context.Background(), "asset-1", overlapping); !errors.As(err, &cerr) {
		t.Fatalf("got %v, want *ConflictError", err)
	}
}

func TestUnavailableDates(t *testing.T) {
	paid := reservationIn("res-paid", reservation.StatePaid, ranged(t, "2025-06-10", "2025-06-12"))
	cancelled := reservationIn("res-cxl", reservation.StateCancelled, ranged(t, "2025-06-14", "2025-06-16"))
	block := &Block{ID: "blk-1", AssetID: "asset-1", Span: ranged(t, "2025-06-12", "2025-06-13")}

	engine := &Engine{
		Reservations: &stubReservations{items: []*reservation.Reservation{paid, cancelled}},
		Blocks:       &stubBlocks{items: []*Block{block}},
	}

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	got, err := engine.UnavailableDates(context.Background(), "asset-1", from, to)
	if err != nil {
		t.Fatalf("UnavailableDates: %v", err)
	}
	// 06-12 is occupied by both sources and must appear once.
	want := []string{"2025-06-10", "2025-06-11", "2025-06-12", "2025-06-13"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	again, err := engine.UnavailableDates(context.Background(), "asset-1", from, to)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(again, want) {
		t.Fatalf("reads must be idempotent, got %v", again)
	}
}

func TestUnavailableDatesClipsToWindow(t *testing.T) {
	paid := reservationIn("res-paid", reservation.StatePaid, ranged(t, "2025-06-10", "2025-06-20"))
	engine := &Engine{
		Reservations: &stubReservations{items: []*reservation.Reservation{paid}},
		Blocks:       &stubBlocks{},
	}

	got, err := engine.UnavailableDates(context.Background(), "asset-1",
		time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("UnavailableDates: %v", err)
	}
	want := []string{"2025-06-18", "2025-06-19", "2025-06-20"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestUnavailableDatesEmpty(t *testing.T) {
	engine := &Engine{Reservations: &stubReservations{}, Blocks: &stubBlocks{}}
	got, err := engine.UnavailableDates(context.Background(), "asset-1",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("UnavailableDates: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestUnavailableDatesFailsClosed(t *testing.T) {
	boom := errors.New("source down")
	engine := &Engine{Reservations: &stubReservations{err: boom}, Blocks: &stubBlocks{}}
	if _, err := engine.UnavailableDates(context.Background(), "asset-1",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)); !errors.Is(err, boom) {
		t.Fatalf("got %v, want source error propagated", err)
	}
	if err := engine.CheckConflict(context.Background(), "asset-1", ranged(t, "2025-06-10", "2025-06-12")); !errors.Is(err, boom) {
		t.Fatalf("got %v, want source error propagated", err)
	}
}
