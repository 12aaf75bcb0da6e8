package calendar

import (
	"fmt"
	"time"
)

// MomentLayout is the canonical text form of a Moment.
const MomentLayout = "2006-01-02T15:04:05.000Z07:00"

// localLayouts are accepted by ParseMoment when the input carries no offset.
// They are interpreted in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Moment is an absolute instant with millisecond resolution.
//
// The zero Moment is January 1, year 1, 00:00:00 UTC, matching time.Time.
type Moment struct {
	t time.Time
}

// NewMoment wraps t, truncating it to whole milliseconds.
func NewMoment(t time.Time) Moment {
	loc := t.Location()
	return Moment{t: time.UnixMilli(t.UnixMilli()).In(loc)}
}

// Now returns the current instant in the local location.
func Now() Moment {
	return NewMoment(time.Now())
}

// ParseMoment reads an RFC 3339 timestamp. Inputs without an offset are
// interpreted in loc; the result is always expressed in loc so that day and
// month arithmetic follows that location's calendar.
func ParseMoment(s string, loc *time.Location) (Moment, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewMoment(t.In(loc)), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return NewMoment(t), nil
		}
	}
	return Moment{}, &ParseError{Kind: "moment", Input: s, Err: fmt.Errorf("expected RFC 3339 timestamp")}
}

// Time returns the instant as a time.Time.
func (m Moment) Time() time.Time {
	return m.t
}

// Clone returns a copy of m.
func (m Moment) Clone() Moment {
	return Moment{t: m.Time()}
}

// In returns the same instant expressed in loc.
func (m Moment) In(loc *time.Location) Moment {
	return Moment{t: m.Time().In(loc)}
}

// UnixMilli returns the instant as milliseconds since the Unix epoch.
func (m Moment) UnixMilli() int64 {
	return m.Time().UnixMilli()
}

// Diff returns m - other as a millisecond Duration.
func (m Moment) Diff(other Moment) Duration {
	return NewDuration(m.UnixMilli() - other.UnixMilli())
}

// Add returns m moved forward by d. The receiver is not modified.
//
// Components are applied milliseconds first, then days on m's local
// calendar, then months. A month step that lands past the end of the
// target month is clamped to its last day.
func (m Moment) Add(d Duration) Moment {
	return m.shift(d, 1)
}

// Subtract returns m moved backward by d. The receiver is not modified.
func (m Moment) Subtract(d Duration) Moment {
	return m.shift(d, -1)
}

func (m Moment) shift(d Duration, sign int64) Moment {
	t := m.Time()
	loc := t.Location()
	if d.ms != 0 {
		t = time.UnixMilli(t.UnixMilli() + sign*d.ms).In(loc)
	}
	if d.days != 0 {
		t = t.AddDate(0, 0, int(sign*d.days))
	}
	if d.months != 0 {
		t = addMonths(t, sign*d.months)
	}
	return Moment{t: t}
}

// addMonths moves t by n calendar months, clamping the day of month.
func addMonths(t time.Time, n int64) time.Time {
	y, mo, day := t.Date()
	total := int64(y)*12 + int64(mo-1) + n
	year := total / 12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	if last := daysIn(int(year), time.Month(month+1)); day > last {
		day = last
	}
	h, mi, s := t.Clock()
	return time.Date(int(year), time.Month(month+1), day, h, mi, s, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsSame reports whether m and other are the same instant.
func (m Moment) IsSame(other Moment) bool {
	return m.UnixMilli() == other.UnixMilli()
}

// IsBefore reports whether m is strictly earlier than other.
func (m Moment) IsBefore(other Moment) bool {
	return m.UnixMilli() < other.UnixMilli()
}

// IsSameOrBefore reports whether m is not later than other.
func (m Moment) IsSameOrBefore(other Moment) bool {
	return m.UnixMilli() <= other.UnixMilli()
}

// IsAfter reports whether m is strictly later than other.
func (m Moment) IsAfter(other Moment) bool {
	return m.UnixMilli() > other.UnixMilli()
}

// IsSameOrAfter reports whether m is not earlier than other.
func (m Moment) IsSameOrAfter(other Moment) bool {
	return m.UnixMilli() >= other.UnixMilli()
}

// String formats m with MomentLayout.
func (m Moment) String() string {
	return m.Time().Format(MomentLayout)
}
