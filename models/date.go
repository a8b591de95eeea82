package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts "2006-01-02" and anything with a "T" time suffix after
// the day, keeping only the day as written.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, Invalid("dueDate", "must be a date in YYYY-MM-DD form")
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return Invalid("dueDate", "must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DatePatch tells apart an absent due date (Set false), an explicit clear
// (Set true, Date nil) and a new value.
type DatePatch struct {
	Set  bool
	Date *Date
}

func SetDate(d Date) DatePatch { return DatePatch{Set: true, Date: &d} }

func ClearDate() DatePatch { return DatePatch{Set: true} }

func (p DatePatch) IsZero() bool { return !p.Set }

func (p DatePatch) MarshalJSON() ([]byte, error) {
	if p.Date == nil {
		return []byte("null"), nil
	}
	return p.Date.MarshalJSON()
}

func (p *DatePatch) UnmarshalJSON(b []byte) error {
	p.Set = true
	p.Date = nil
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return Invalid("dueDate", "must be a string or null")
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return err
	}
	p.Date = &d
	return nil
}
