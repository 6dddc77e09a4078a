package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

// ISOLayout is the instant layout used on the wire and in storage.
// Fixed width, so stored values sort lexicographically.
const ISOLayout = "2006-01-02T15:04:05.000Z"

const dateOnlyLayout = "2006-01-02"

var location atomic.Pointer[time.Location]

// SetLocation sets the zone used to interpret date-only input and month
// boundaries. It defaults to UTC.
func SetLocation(loc *time.Location) {
	if loc != nil {
		location.Store(loc)
	}
}

// Location returns the configured zone.
func Location() *time.Location {
	if loc := location.Load(); loc != nil {
		return loc
	}
	return time.UTC
}

// Date is an instant that serialises as an ISO string.
type Date struct {
	time.Time
}

// NewDate creates a Date at midnight of the given day in the configured zone.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, Location())}
}

// ParseDate accepts RFC 3339 instants and plain YYYY-MM-DD days. Days are
// read as midnight in the configured zone.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, s, Location()); err == nil {
		return Date{Time: t}, nil
	}
	return Date{}, ErrInvalidDate
}

// String returns the ISO form in UTC.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(ISOLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthBounds returns the half-open interval [first of month, first of next
// month) containing t, in loc.
func MonthBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
