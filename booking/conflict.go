// Package booking validates booking date ranges and detects overlaps with
// existing bookings on the same spot.
//
// Ranges are compared on calendar days with inclusive bounds: a booking that
// starts on the day another one ends conflicts with it.
package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	// ErrConflict matches any *ConflictError.
	ErrConflict = errors.New("booking conflicts with an existing booking")
	// ErrInvalidRange matches any *RangeError.
	ErrInvalidRange = errors.New("invalid booking range")
)

// Interval is a booking's date range. ID is zero for a booking not yet stored.
type Interval struct {
	ID    uint
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b share at least one day.
func Overlaps(a, b Interval) bool {
	return !b.Start.After(a.End) && !b.End.Before(a.Start)
}

func within(t time.Time, iv Interval) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// ConflictError describes which bounds of a candidate collide.
type ConflictError struct {
	StartConflict bool
	EndConflict   bool
	// BookingIDs are the existing bookings that overlap the candidate.
	BookingIDs []uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking overlaps existing bookings %v", e.BookingIDs)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Fields returns per-field messages for the API error body.
func (e *ConflictError) Fields() map[string]string {
	fields := map[string]string{}
	if e.StartConflict {
		fields["startDate"] = "Start date conflicts with an existing booking"
	}
	if e.EndConflict {
		fields["endDate"] = "End date conflicts with an existing booking"
	}
	return fields
}

// Check returns a *ConflictError if candidate overlaps any interval in
// existing. An existing interval with the candidate's own ID is skipped so a
// booking can be moved within its current dates.
func Check(candidate Interval, existing []Interval) error {
	var conflict ConflictError
	for _, iv := range existing {
		if candidate.ID != 0 && iv.ID == candidate.ID {
			continue
		}
		if !Overlaps(candidate, iv) {
			continue
		}
		startIn := within(candidate.Start, iv)
		endIn := within(candidate.End, iv)
		if !startIn && !endIn {
			// candidate surrounds iv
			startIn, endIn = true, true
		}
		conflict.StartConflict = conflict.StartConflict || startIn
		conflict.EndConflict = conflict.EndConflict || endIn
		conflict.BookingIDs = append(conflict.BookingIDs, iv.ID)
	}
	if len(conflict.BookingIDs) == 0 {
		return nil
	}
	return &conflict
}

// RangeError carries per-field validation messages for a date range.
type RangeError struct {
	Fields map[string]string
}

func (e *RangeError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func (e *RangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// Validate rejects ranges that end on or before they start and ranges with a
// bound before today (UTC).
func Validate(start, end, now time.Time) error {
	fields := map[string]string{}
	today := Day(now)
	if start.Before(today) {
		fields["startDate"] = "startDate cannot be in the past"
	}
	if end.Before(today) {
		fields["endDate"] = "endDate cannot be in the past"
	}
	if !end.After(start) {
		fields["endDate"] = "endDate cannot be on or before startDate"
	}
	if len(fields) == 0 {
		return nil
	}
	return &RangeError{Fields: fields}
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Day(t), nil
}
