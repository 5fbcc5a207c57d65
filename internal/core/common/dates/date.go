package dates

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const Layout = "2006-01-02"

// Date is a calendar date carried over JSON as "YYYY-MM-DD". RFC3339 timestamps are
// accepted on input and truncated to the day.
type Date struct {
	time.Time
}

func New(t time.Time) Date {
	return Date{Time: Truncate(t)}
}

func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(Layout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Truncate(t), nil
	}
	return time.Time{}, errors.New("date must be YYYY-MM-DD")
}

// Truncate drops the time of day while keeping the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(Layout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := Parse(*raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Ptr returns nil for the zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func FromPtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := New(*t)
	return &d
}
