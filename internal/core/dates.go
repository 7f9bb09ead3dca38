package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned by ParseDateStrict for values no layout accepts.
var ErrInvalidDate = errors.New("invalid date")

// MonthKeyLayout formats month buckets as "YYYY-MM".
const MonthKeyLayout = "2006-01"

// Date is a calendar instant normalized to UTC. The zero value means
// "no date".
type Date struct {
	time.Time
}

// DateRange is an inclusive range; a zero bound leaves that side open.
type DateRange struct {
	From Date
	To   Date
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// NewDate builds a UTC date at midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDateStrict parses value with the layouts the API is known to emit.
func ParseDateStrict(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// ParseDate never fails: unparseable or empty input yields the zero Date.
func ParseDate(value string) Date {
	d, err := ParseDateStrict(value)
	if err != nil {
		return Date{}
	}
	return d
}

// MonthKey returns the "YYYY-MM" bucket of d, or "" for the zero date.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(MonthKeyLayout)
}

// ISO formats d as YYYY-MM-DD, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// Display formats d as DD/MM/YYYY, or "-" for the zero date.
func (d Date) Display() string {
	if d.IsZero() {
		return "-"
	}
	return d.Format("02/01/2006")
}

// NewDateRange parses the two bounds fail-soft.
func NewDateRange(from, to string) DateRange {
	return DateRange{From: ParseDate(from), To: ParseDate(to)}
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Inverted reports whether both bounds are set and From is after To.
func (r DateRange) Inverted() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To.Time)
}

// WithinRange reports whether d falls inside r. The zero date is never in
// range.
func WithinRange(d Date, r DateRange) bool {
	if d.IsZero() {
		return false
	}
	if !r.From.IsZero() && d.Before(r.From.Time) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To.Time) {
		return false
	}
	return true
}
