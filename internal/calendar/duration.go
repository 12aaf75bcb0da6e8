package calendar

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Duration is a signed span of time with calendar components.
//
// The three components are kept apart because a month or a day does not
// have a fixed length in milliseconds. The zero Duration is an empty span.
type Duration struct {
	months int64
	days   int64
	ms     int64
}

// NewDuration returns a Duration of exactly ms milliseconds.
func NewDuration(ms int64) Duration {
	return Duration{ms: ms}
}

// DurationOf returns a Duration with the given calendar components.
func DurationOf(months, days, ms int64) Duration {
	return Duration{months: months, days: days, ms: ms}
}

// FromMilliseconds floors ms to a whole number of milliseconds.
// NaN, infinities and values outside the int64 range yield ErrNonFinite.
func FromMilliseconds(ms float64) (Duration, error) {
	f := math.Floor(ms)
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return Duration{}, fmt.Errorf("%w: %v", ErrNonFinite, ms)
	}
	return NewDuration(int64(f)), nil
}

// Months returns the month component.
func (d Duration) Months() int64 { return d.months }

// Days returns the day component.
func (d Duration) Days() int64 { return d.days }

// Milliseconds returns the fixed-length component.
func (d Duration) Milliseconds() int64 { return d.ms }

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d.months == 0 && d.days == 0 && d.ms == 0
}

// Clone returns a copy of d.
func (d Duration) Clone() Duration {
	return d
}

// Add returns d + other, component by component. It fails with
// ErrOutOfRange when a component or the millisecond estimate of the sum
// does not fit in an int64.
func (d Duration) Add(other Duration) (Duration, error) {
	return d.combine(other, 1)
}

// Subtract returns d - other, component by component, with the same range
// check as Add.
func (d Duration) Subtract(other Duration) (Duration, error) {
	return d.combine(other, -1)
}

func (d Duration) combine(other Duration, sign int64) (Duration, error) {
	months, ok1 := addScaled(d.months, other.months, sign)
	days, ok2 := addScaled(d.days, other.days, sign)
	ms, ok3 := addScaled(d.ms, other.ms, sign)
	if !ok1 || !ok2 || !ok3 {
		return Duration{}, ErrOutOfRange
	}
	out := Duration{months: months, days: days, ms: ms}
	if _, ok := out.millis(); !ok {
		return Duration{}, ErrOutOfRange
	}
	return out, nil
}

// AsMilliseconds returns the total length of d in milliseconds.
//
// Months are first converted to whole days with round(months*146097/4800),
// so the result is an estimate whenever d has a month component: P1M counts
// as 30 days and compares larger than P29D even though February is shorter.
//
// Parsed and combined Durations always fit. A Duration built with DurationOf
// whose estimate does not fit saturates at math.MaxInt64 or math.MinInt64.
func (d Duration) AsMilliseconds() int64 {
	ms, ok := d.millis()
	if ok {
		return ms
	}
	if d.sign() < 0 {
		return math.MinInt64
	}
	return math.MaxInt64
}

// millis computes the millisecond estimate, reporting false on overflow.
func (d Duration) millis() (int64, bool) {
	monthDays, ok := roundHalfUp(float64(d.months) * 146097 / 4800)
	if !ok {
		return 0, false
	}
	days, ok := addInt64(d.days, monthDays)
	if !ok {
		return 0, false
	}
	dayMs, ok := mulInt64(days, msPerDay)
	if !ok {
		return 0, false
	}
	return addInt64(dayMs, d.ms)
}

// sign reports the sign of the millisecond estimate, computed in floating
// point so that it holds when the exact value overflows.
func (d Duration) sign() int64 {
	est := (float64(d.months)*146097/4800+float64(d.days))*msPerDay + float64(d.ms)
	switch {
	case est < 0:
		return -1
	case est > 0:
		return 1
	}
	return 0
}

// roundHalfUp rounds ties toward positive infinity. It reports false when
// the result does not fit in an int64.
func roundHalfUp(f float64) (int64, bool) {
	r := math.Floor(f + 0.5)
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return 0, false
	}
	return int64(r), true
}

func addInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// addScaled returns a + sign*b for sign 1 or -1.
func addScaled(a, b, sign int64) (int64, bool) {
	if sign > 0 {
		return addInt64(a, b)
	}
	if b == math.MinInt64 {
		return 0, false
	}
	return addInt64(a, -b)
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return p, true
}

// String formats d as an ISO 8601 duration, e.g. "P1Y2M3DT4H5M6.007S".
// A span whose components are all non-positive is written with a leading
// minus sign; mixed signs are written per component.
func (d Duration) String() string {
	if d.IsZero() {
		return "P0D"
	}

	months, days, ms := d.months, d.days, d.ms
	sign := ""
	if months <= 0 && days <= 0 && ms <= 0 {
		sign = "-"
		months, days, ms = -months, -days, -ms
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteByte('P')
	if y := months / 12; y != 0 {
		fmt.Fprintf(&b, "%dY", y)
	}
	if mo := months % 12; mo != 0 {
		fmt.Fprintf(&b, "%dM", mo)
	}
	if days != 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if ms != 0 {
		b.WriteByte('T')
		writeClock(&b, ms)
	}
	return b.String()
}

func writeClock(b *strings.Builder, ms int64) {
	neg := ms < 0
	if neg {
		ms = -ms
	}
	prefix := ""
	if neg {
		prefix = "-"
	}
	h := ms / msPerHour
	m := (ms % msPerHour) / msPerMinute
	s := (ms % msPerMinute) / msPerSecond
	frac := ms % msPerSecond
	if h != 0 {
		fmt.Fprintf(b, "%s%dH", prefix, h)
	}
	if m != 0 {
		fmt.Fprintf(b, "%s%dM", prefix, m)
	}
	switch {
	case frac != 0:
		fmt.Fprintf(b, "%s%d.%s", prefix, s, strings.TrimRight(fmt.Sprintf("%03d", frac), "0"))
		b.WriteByte('S')
	case s != 0:
		fmt.Fprintf(b, "%s%dS", prefix, s)
	}
}

// Components may carry their own minus sign so that mixed-sign spans
// written by String read back unchanged.
var isoDuration = regexp.MustCompile(`^([+-])?P` +
	`(?:(-?\d+)Y)?(?:(-?\d+)M)?(?:(-?\d+)W)?(?:(-?\d+)D)?` +
	`(?:T(?:(-?\d+(?:[.,]\d+)?)H)?(?:(-?\d+(?:[.,]\d+)?)M)?(?:(-?\d+(?:[.,]\d+)?)S)?)?$`)

// ParseDuration reads an ISO 8601 duration such as "P1M", "PT1H30M",
// "P1Y2M3DT4H5M6.5S" or "-P1D". Calendar components (Y, M, W, D) must be
// whole numbers; fractional hours, minutes and seconds are floored to
// milliseconds. A duration whose components or total milliseconds do not
// fit in an int64 fails with ErrOutOfRange.
func ParseDuration(s string) (Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return Duration{}, &ParseError{Kind: "duration", Input: s, Err: fmt.Errorf("expected ISO 8601 duration")}
	}
	if strings.TrimLeft(s, "+-") == "P" {
		return Duration{}, &ParseError{Kind: "duration", Input: s, Err: fmt.Errorf("no components")}
	}

	d, err := durationFromMatch(m)
	if err != nil {
		return Duration{}, &ParseError{Kind: "duration", Input: s, Err: err}
	}
	if m[1] == "-" {
		if d, err = (Duration{}).Subtract(d); err != nil {
			return Duration{}, &ParseError{Kind: "duration", Input: s, Err: err}
		}
	}
	return d, nil
}

// durationFromMatch builds a Duration from the isoDuration submatches,
// failing with ErrOutOfRange instead of wrapping.
func durationFromMatch(m []string) (Duration, error) {
	var comps [7]int64
	for i, unit := range []int64{12, 1, 7, 1} {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+2], 10, 64)
		if err != nil {
			return Duration{}, ErrOutOfRange
		}
		if comps[i], err = scaleComponent(n, unit); err != nil {
			return Duration{}, err
		}
	}
	for i, unit := range []int64{msPerHour, msPerMinute, msPerSecond} {
		ms, err := decimalMillis(m[i+6], unit)
		if err != nil {
			return Duration{}, err
		}
		comps[i+4] = ms
	}

	months, ok1 := addInt64(comps[0], comps[1])
	days, ok2 := addInt64(comps[2], comps[3])
	hm, ok3 := addInt64(comps[4], comps[5])
	ms, ok4 := addInt64(hm, comps[6])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Duration{}, ErrOutOfRange
	}
	d := Duration{months: months, days: days, ms: ms}
	if _, ok := d.millis(); !ok {
		return Duration{}, ErrOutOfRange
	}
	return d, nil
}

func scaleComponent(n, unit int64) (int64, error) {
	v, ok := mulInt64(n, unit)
	if !ok {
		return 0, ErrOutOfRange
	}
	return v, nil
}

// decimalMillis converts a decimal literal such as "6.5" or "0,25" counted in
// unit milliseconds to whole milliseconds, flooring any remainder. Integer
// arithmetic keeps "0.003" seconds at exactly 3ms.
func decimalMillis(lit string, unit int64) (int64, error) {
	if lit == "" {
		return 0, nil
	}
	neg := strings.HasPrefix(lit, "-")
	intPart, fracPart, _ := strings.Cut(strings.Replace(strings.TrimPrefix(lit, "-"), ",", ".", 1), ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrOutOfRange
	}
	ms, err := scaleComponent(n, unit)
	if err != nil {
		return 0, err
	}
	if len(fracPart) > 9 {
		fracPart = fracPart[:9]
	}
	if fracPart != "" {
		// At most nine digits, so num*unit stays below 1e9 * msPerHour.
		num, _ := strconv.ParseInt(fracPart, 10, 64)
		scale := int64(math.Pow10(len(fracPart)))
		var ok bool
		if ms, ok = addInt64(ms, num*unit/scale); !ok {
			return 0, ErrOutOfRange
		}
	}
	if neg {
		return -ms, nil
	}
	return ms, nil
}
