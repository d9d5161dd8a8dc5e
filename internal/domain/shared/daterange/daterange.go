package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a half-open stay interval [checkIn, checkOut).
// Both bounds are day-granular: the time component is truncated to UTC
// midnight on construction, so a checkout day never counts as occupied.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Day truncates a timestamp to UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Overlaps applies the standard half-open interval test: ranges sharing
// only a boundary day (one checkout, one checkin) do not conflict.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

// Days expands the range into its individual occupied days. The checkout
// day is excluded.
func (dr DateRange) Days() []time.Time {
	if dr.Validate() != nil {
		return nil
	}
	days := make([]time.Time, 0, dr.Nights())
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Clamp narrows the range to [from, to), returning false when nothing
// remains. Zero bounds are treated as unbounded.
func (dr DateRange) Clamp(from, to time.Time) (DateRange, bool) {
	out := dr
	if !from.IsZero() && from.After(out.CheckIn) {
		out.CheckIn = Day(from)
	}
	if !to.IsZero() && to.Before(out.CheckOut) {
		out.CheckOut = Day(to)
	}
	if !out.CheckOut.After(out.CheckIn) {
		return DateRange{}, false
	}
	return out, true
}
