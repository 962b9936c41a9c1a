package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Date is a calendar day. The wrapped time is always midnight UTC.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q must be in YYYY-MM-DD format", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// ParseMonth accepts YYYY-MM or YYYY-MM-DD and returns the first day of
// that month.
func ParseMonth(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(MonthLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q must be in YYYY-MM or YYYY-MM-DD format", ErrInvalidDate, s)
	}
	return d.MonthStart(), nil
}

// MonthStart is the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// MonthEnd is the last day of d's month.
func (d Date) MonthEnd() Date {
	return Date{Time: d.MonthStart().AddDate(0, 1, -1)}
}

// MonthLabel is the YYYY-MM key used by time series.
func (d Date) MonthLabel() string {
	return d.Format(MonthLayout)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("%w: date must be a string", ErrInvalidDate)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
