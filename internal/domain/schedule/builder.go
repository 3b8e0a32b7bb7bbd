package schedule

import (
	"fmt"
	"regexp"
	"time"

	"haulshare/internal/domain/asset"
)

// Fallbacks used in daily mode when the asset carries no pickup/return defaults.
const (
	GlobalDefaultPickup = "10:00"
	GlobalDefaultReturn = "17:00"
)

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])(:([0-5][0-9]))?$`)

// ValidationError reports malformed or semantically invalid builder input.
// The caller can correct the named field and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schedule: invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Input carries the raw client-supplied fields for a new reservation window.
// Daily mode reads StartDate/EndDate plus optional pickup/return time
// overrides; hourly mode reads StartDate plus mandatory StartTime/EndTime.
type Input struct {
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD, daily mode only, defaults to StartDate
	StartTime string // HH:MM[:SS]
	EndTime   string // HH:MM[:SS]
}

// Built is the canonical outcome of normalizing an Input: one Interval plus
// exactly one populated metric matching the granularity actually used.
type Built struct {
	Window Interval
	Days   int     // populated in daily mode
	Hours  float64 // populated in hourly mode

	// Pickup/Return are the concrete handover instants in daily mode. They
	// refine the date-granular window for display and billing but do not
	// participate in conflict checks.
	Pickup time.Time
	Return time.Time
}

// Build normalizes heterogeneous client input into one canonical interval,
// according to the asset's scheduling mode. It performs shape and ordering
// validation only; notice/horizon/length limits are the caller's concern.
func Build(in Input, cfg asset.Scheduling) (Built, error) {
	switch cfg.Mode {
	case asset.ModeHourly:
		return buildHourly(in)
	case asset.ModeDaily:
		return buildDaily(in, cfg)
	default:
		return Built{}, invalid("mode", fmt.Sprintf("unknown scheduling mode %q", cfg.Mode))
	}
}

func buildHourly(in Input) (Built, error) {
	date, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return Built{}, err
	}
	if in.StartTime == "" {
		return Built{}, invalid("start_time", "required in hourly mode")
	}
	if in.EndTime == "" {
		return Built{}, invalid("end_time", "required in hourly mode")
	}
	start, err := combine(date, "start_time", in.StartTime)
	if err != nil {
		return Built{}, err
	}
	end, err := combine(date, "end_time", in.EndTime)
	if err != nil {
		return Built{}, err
	}
	window, err := NewTimed(start, end)
	if err != nil {
		return Built{}, invalid("end_time", "must be after start time")
	}
	return Built{Window: window, Hours: window.Hours()}, nil
}

func buildDaily(in Input, cfg asset.Scheduling) (Built, error) {
	startDate, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return Built{}, err
	}
	endDate := startDate
	if in.EndDate != "" {
		endDate, err = parseDate("end_date", in.EndDate)
		if err != nil {
			return Built{}, err
		}
	}
	window, err := NewRanged(startDate, endDate)
	if err != nil {
		return Built{}, invalid("end_date", "must not be before start date")
	}

	pickupTOD := firstNonEmpty(in.StartTime, cfg.DefaultPickup, GlobalDefaultPickup)
	returnTOD := firstNonEmpty(in.EndTime, cfg.DefaultReturn, GlobalDefaultReturn)
	pickup, err := combine(window.Start, "pickup_time", pickupTOD)
	if err != nil {
		return Built{}, err
	}
	ret, err := combine(window.End, "return_time", returnTOD)
	if err != nil {
		return Built{}, err
	}
	// Same-day bookings are valid on dates alone but still need the return
	// handover to happen after pickup.
	if !ret.After(pickup) {
		return Built{}, invalid("return_time", "return must be after pickup")
	}

	return Built{Window: window, Days: window.Days(), Pickup: pickup, Return: ret}, nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, invalid(field, "required")
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, invalid(field, "must be YYYY-MM-DD")
	}
	return t, nil
}

// combine attaches a validated HH:MM[:SS] time of day to a calendar date.
func combine(date time.Time, field, tod string) (time.Time, error) {
	m := timeOfDayPattern.FindStringSubmatch(tod)
	if m == nil {
		return time.Time{}, invalid(field, "must be HH:MM or HH:MM:SS")
	}
	hour := mustAtoi(m[1])
	minute := mustAtoi(m[2])
	second := 0
	if m[4] != "" {
		second = mustAtoi(m[4])
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, 0, time.UTC), nil
}

func mustAtoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
