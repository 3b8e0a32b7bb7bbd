package schedule

import (
	"errors"
	"time"
)

var (
	ErrInvalidRangedSpan = errors.New("schedule: end date must not be before start date")
	ErrInvalidTimedSpan  = errors.New("schedule: end instant must be after start instant")
)

// Granularity tags the two scheduling modes an asset can run in.
type Granularity string

const (
	// GranularityRanged is a whole-day span, inclusive of both endpoint dates.
	GranularityRanged Granularity = "RANGED"
	// GranularityTimed is a sub-day span of instants, half-open [start, end).
	GranularityTimed Granularity = "TIMED"
)

// Interval is a committed span for an asset in one of the two granularities.
// A ranged interval occupies every calendar date from Start to End inclusive;
// Start and End are normalized to midnight UTC. A timed interval occupies the
// continuous instant span [Start, End).
type Interval struct {
	Granularity Granularity
	Start       time.Time
	End         time.Time
}

// NewRanged builds a whole-day interval from two dates. The time-of-day
// portion of both arguments is discarded.
func NewRanged(start, end time.Time) (Interval, error) {
	s := DateOf(start)
	e := DateOf(end)
	if e.Before(s) {
		return Interval{}, ErrInvalidRangedSpan
	}
	return Interval{Granularity: GranularityRanged, Start: s, End: e}, nil
}

// NewTimed builds an instant-precision interval.
func NewTimed(start, end time.Time) (Interval, error) {
	s := start.UTC()
	e := end.UTC()
	if !e.After(s) {
		return Interval{}, ErrInvalidTimedSpan
	}
	return Interval{Granularity: GranularityTimed, Start: s, End: e}, nil
}

// DateOf truncates an instant to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Days returns the number of calendar dates a ranged interval occupies.
// Zero for timed intervals.
func (iv Interval) Days() int {
	if iv.Granularity != GranularityRanged {
		return 0
	}
	return int(iv.End.Sub(iv.Start).Hours()/24) + 1
}

// Hours returns the duration of a timed interval in hours. Zero for ranged.
func (iv Interval) Hours() float64 {
	if iv.Granularity != GranularityTimed {
		return 0
	}
	return iv.End.Sub(iv.Start).Hours()
}

// widened maps the interval onto date granularity. A timed interval blocks the
// whole calendar date it starts on: the engine does not reason below date
// granularity when comparing against date-based data.
func (iv Interval) widened() (first, last time.Time) {
	if iv.Granularity == GranularityTimed {
		d := DateOf(iv.Start)
		return d, d
	}
	return iv.Start, iv.End
}

// Overlaps reports whether two intervals conflict. Timed-vs-timed comparison
// is exact over the half-open instant spans; every comparison involving a
// ranged interval happens at date granularity with timed intervals widened to
// their start date.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.Granularity == GranularityTimed && other.Granularity == GranularityTimed {
		return iv.Start.Before(other.End) && other.Start.Before(iv.End)
	}
	aFirst, aLast := iv.widened()
	bFirst, bLast := other.widened()
	return !aLast.Before(bFirst) && !bLast.Before(aFirst)
}

// IntersectsDates reports whether the interval occupies any date inside the
// inclusive [from, to] date window.
func (iv Interval) IntersectsDates(from, to time.Time) bool {
	window := Interval{Granularity: GranularityRanged, Start: DateOf(from), End: DateOf(to)}
	return iv.Overlaps(window)
}

// Dates enumerates the ISO calendar dates the interval occupies, ascending,
// deduplicated. A timed interval yields only its start date.
func (iv Interval) Dates() []string {
	first, last := iv.widened()
	out := make([]string, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}

// DatesWithin enumerates the occupied dates clipped to the inclusive
// [from, to] window.
func (iv Interval) DatesWithin(from, to time.Time) []string {
	first, last := iv.widened()
	lo := DateOf(from)
	hi := DateOf(to)
	if first.Before(lo) {
		first = lo
	}
	if last.After(hi) {
		last = hi
	}
	var out []string
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}
