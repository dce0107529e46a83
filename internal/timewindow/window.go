// Package timewindow answers whether an hour or a day falls inside a
// configured window. Hour windows are half-open [start, end) and wrap past
// midnight when start >= end, so 22→8 covers 22:00 through 07:59.
package timewindow

import "time"

// HoursPerDay bounds every hour value.
const HoursPerDay = 24

// InWindow reports whether hour lies in [start, end), wrapping overnight
// when start >= end. A window with start == end covers the whole day.
func InWindow(hour, start, end int) bool {
	hour, start, end = NormalizeHour(hour), NormalizeHour(start), NormalizeHour(end)
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// Length is the number of hours covered by [start, end).
func Length(start, end int) int {
	start, end = NormalizeHour(start), NormalizeHour(end)
	if start < end {
		return end - start
	}
	return HoursPerDay - start + end
}

// Hours lists the hours covered by [start, end) in order from start.
func Hours(start, end int) []int {
	n := Length(start, end)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NormalizeHour(start+i))
	}
	return out
}

// NormalizeHour folds any integer into [0, 23].
func NormalizeHour(h int) int {
	h %= HoursPerDay
	if h < 0 {
		h += HoursPerDay
	}
	return h
}

// HourOf returns the hour of t in loc. A nil loc means UTC.
func HourOf(t time.Time, loc *time.Location) int {
	return t.In(orUTC(loc)).Hour()
}

// WeekdayOf returns the weekday of t in loc. A nil loc means UTC.
func WeekdayOf(t time.Time, loc *time.Location) time.Weekday {
	return t.In(orUTC(loc)).Weekday()
}

// IsWeekend reports whether d is Saturday or Sunday.
func IsWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// --------------------------------------------------------------------------
// Day sets
// --------------------------------------------------------------------------

// Days is a set of weekdays stored as a bitmask.
type Days uint8

// AllDays contains every weekday.
const AllDays Days = 1<<7 - 1

// NewDays builds a set from weekdays.
func NewDays(days ...time.Weekday) Days {
	var s Days
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// Has reports whether d is in the set.
func (s Days) Has(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday && s&(1<<uint(d)) != 0
}

// With returns s with d added.
func (s Days) With(d time.Weekday) Days {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

// Len is the number of days in the set.
func (s Days) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Weekdays lists members from Sunday to Saturday.
func (s Days) Weekdays() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}
