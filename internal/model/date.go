package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// DateLayout is the canonical on-disk date format.
const DateLayout = "2006-01-02"

// dateLayouts are the source formats accepted when parsing, in order of
// preference. The health department PDFs render dates as MM/DD/YYYY.
var dateLayouts = []string{
	DateLayout,
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
}

// Date is a calendar date without a time component. It round-trips
// through CSV as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a date from any of the accepted source formats.
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t}, nil
		}
	}
	return Date{}, eris.Errorf("parse date: unrecognized format %q", s)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalCSV implements csvutil.Marshaler.
func (d Date) MarshalCSV() ([]byte, error) {
	if d.IsZero() {
		return nil, nil
	}
	return []byte(d.Format(DateLayout)), nil
}

// UnmarshalCSV implements csvutil.Unmarshaler.
func (d *Date) UnmarshalCSV(data []byte) error {
	if len(data) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
