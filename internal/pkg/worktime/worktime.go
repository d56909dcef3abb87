package worktime

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

var ErrInvalidInterval = errors.New("clock-out must be after clock-in")

// Shift is a scheduled working window anchored to a specific day.
type Shift struct {
	ScheduledStart  time.Time
	ScheduledEnd    time.Time
	StandardMinutes int
}

// Duration holds the minute counts derived from a clock-in/clock-out pair.
type Duration struct {
	WorkedMinutes         int
	LateMinutes           int
	EarlyDepartureMinutes int
	OvertimeMinutes       int
}

// Compute derives worked, late, early-departure and overtime minutes.
// All values are non-negative; clockOut must be strictly after clockIn.
func Compute(clockIn, clockOut time.Time, shift Shift) (Duration, error) {
	if !clockOut.After(clockIn) {
		return Duration{}, ErrInvalidInterval
	}

	worked := wholeMinutes(clockOut.Sub(clockIn))

	return Duration{
		WorkedMinutes:         worked,
		LateMinutes:           wholeMinutes(clockIn.Sub(shift.ScheduledStart)),
		EarlyDepartureMinutes: wholeMinutes(shift.ScheduledEnd.Sub(clockOut)),
		OvertimeMinutes:       max(0, worked-shift.StandardMinutes),
	}, nil
}

// LateMinutes is the lateness of clockIn against the shift start alone.
func LateMinutes(clockIn time.Time, shift Shift) int {
	return wholeMinutes(clockIn.Sub(shift.ScheduledStart))
}

// ShiftOn anchors "15:04" start/end clock times to date in loc.
// An end at or before the start rolls over to the next day.
func ShiftOn(date time.Time, start, end string, standardMinutes int, loc *time.Location) (Shift, error) {
	if loc == nil {
		loc = time.UTC
	}

	startH, startM, err := ParseClock(start)
	if err != nil {
		return Shift{}, fmt.Errorf("invalid shift start: %w", err)
	}
	endH, endM, err := ParseClock(end)
	if err != nil {
		return Shift{}, fmt.Errorf("invalid shift end: %w", err)
	}

	y, m, d := date.Date()
	s := time.Date(y, m, d, startH, startM, 0, 0, loc)
	e := time.Date(y, m, d, endH, endM, 0, 0, loc)
	if !e.After(s) {
		e = e.AddDate(0, 0, 1)
	}

	return Shift{ScheduledStart: s, ScheduledEnd: e, StandardMinutes: standardMinutes}, nil
}

// ParseClock parses a "15:04" wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// DateOf returns the civil date of t as observed in loc, at midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" civil date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DatesBetween lists every civil date from start to end inclusive.
func DatesBetween(start, end time.Time) []time.Time {
	start = DateOf(start, nil)
	end = DateOf(end, nil)
	if end.Before(start) {
		return nil
	}

	dates := make([]time.Time, 0, DaysInclusive(start, end))
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DaysInclusive counts calendar days from start to end inclusive.
func DaysInclusive(start, end time.Time) int {
	start = DateOf(start, nil)
	end = DateOf(end, nil)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func wholeMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
