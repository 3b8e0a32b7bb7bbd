package schedule

import (
	"errors"
	"testing"
	"time"

	"haulshare/internal/domain/asset"
)

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	if verr.Field != field {
		t.Fatalf("validation error on field %q, want %q (reason: %s)", verr.Field, field, verr.Reason)
	}
}

func TestBuildHourly(t *testing.T) {
	cfg := asset.Scheduling{Mode: asset.ModeHourly}

	t.Run("builds a timed window on one date", func(t *testing.T) {
		built, err := Build(Input{StartDate: "2025-06-10", StartTime: "09:00", EndTime: "13:30"}, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if built.Window.Granularity != GranularityTimed {
			t.Fatalf("got granularity %q", built.Window.Granularity)
		}
		if built.Hours != 4.5 {
			t.Fatalf("Hours = %v, want 4.5", built.Hours)
		}
		if built.Days != 0 {
			t.Fatalf("Days = %d, want 0", built.Days)
		}
		want := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
		if !built.Window.Start.Equal(want) {
			t.Fatalf("Start = %v, want %v", built.Window.Start, want)
		}
	})

	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing start date", Input{StartTime: "09:00", EndTime: "11:00"}, "start_date"},
		{"missing start time", Input{StartDate: "2025-06-10", EndTime: "11:00"}, "start_time"},
		{"missing end time", Input{StartDate: "2025-06-10", StartTime: "09:00"}, "end_time"},
		{"malformed start time", Input{StartDate: "2025-06-10", StartTime: "9am", EndTime: "11:00"}, "start_time"},
		{"end not after start", Input{StartDate: "2025-06-10", StartTime: "11:00", EndTime: "11:00"}, "end_time"},
		{"end before start", Input{StartDate: "2025-06-10", StartTime: "14:00", EndTime: "09:00"}, "end_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.in, cfg)
			assertFieldError(t, err, tt.field)
		})
	}
}

func TestBuildDaily(t *testing.T) {
	cfg := asset.Scheduling{Mode: asset.ModeDaily, DefaultPickup: "09:00", DefaultReturn: "18:00"}

	t.Run("builds a ranged window with handover instants", func(t *testing.T) {
		built, err := Build(Input{StartDate: "2025-06-10", EndDate: "2025-06-12"}, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if built.Window.Granularity != GranularityRanged {
			t.Fatalf("got granularity %q", built.Window.Granularity)
		}
		if built.Days != 3 {
			t.Fatalf("Days = %d, want 3", built.Days)
		}
		wantPickup := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
		wantReturn := time.Date(2025, 6, 12, 18, 0, 0, 0, time.UTC)
		if !built.Pickup.Equal(wantPickup) || !built.Return.Equal(wantReturn) {
			t.Fatalf("handover %v/%v, want %v/%v", built.Pickup, built.Return, wantPickup, wantReturn)
		}
	})

	t.Run("end date defaults to start date", func(t *testing.T) {
		built, err := Build(Input{StartDate: "2025-06-10"}, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if built.Days != 1 {
			t.Fatalf("Days = %d, want 1", built.Days)
		}
	})

	t.Run("explicit times beat asset defaults", func(t *testing.T) {
		built, err := Build(Input{StartDate: "2025-06-10", StartTime: "07:30", EndTime: "20:00"}, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if built.Pickup.Hour() != 7 || built.Pickup.Minute() != 30 {
			t.Fatalf("Pickup = %v, want 07:30", built.Pickup)
		}
		if built.Return.Hour() != 20 {
			t.Fatalf("Return = %v, want 20:00", built.Return)
		}
	})

	t.Run("global defaults apply when asset has none", func(t *testing.T) {
		bare := asset.Scheduling{Mode: asset.ModeDaily}
		built, err := Build(Input{StartDate: "2025-06-10", EndDate: "2025-06-11"}, bare)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := built.Pickup.Format("15:04"); got != GlobalDefaultPickup {
			t.Fatalf("Pickup time of day %q, want %q", got, GlobalDefaultPickup)
		}
		if got := built.Return.Format("15:04"); got != GlobalDefaultReturn {
			t.Fatalf("Return time of day %q, want %q", got, GlobalDefaultReturn)
		}
	})

	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing start date", Input{EndDate: "2025-06-12"}, "start_date"},
		{"malformed start date", Input{StartDate: "10/06/2025"}, "start_date"},
		{"end before start", Input{StartDate: "2025-06-12", EndDate: "2025-06-10"}, "end_date"},
		{"same-day return not after pickup", Input{StartDate: "2025-06-10", StartTime: "15:00", EndTime: "15:00"}, "return_time"},
		{"malformed pickup time", Input{StartDate: "2025-06-10", StartTime: "25:00"}, "pickup_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.in, cfg)
			assertFieldError(t, err, tt.field)
		})
	}
}

func TestBuildUnknownMode(t *testing.T) {
	_, err := Build(Input{StartDate: "2025-06-10"}, asset.Scheduling{Mode: "WEEKLY"})
	assertFieldError(t, err, "mode")
}
