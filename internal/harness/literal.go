package harness

import (
	"strconv"
	"strings"
	"time"

	"github.com/roach88/tempo/internal/calendar"
)

// ParseLiteral reads a command-line argument as a runtime value.
//
//	moment:2024-03-10T12:00:00Z   Moment read in loc
//	moment:now                    Moment from now(), read in loc
//	duration:P1M                  Duration from ISO 8601
//	duration:3600000              Duration of that many milliseconds
//	number:NaN                    number, including NaN and Inf
//	string:42                     string, even when it looks like a number
//	true, false                   boolean
//	12.5                          number
//
// Anything else is a string.
func ParseLiteral(s string, loc *time.Location, now func() time.Time) (any, error) {
	prefix, rest, found := strings.Cut(s, ":")
	if found {
		switch prefix {
		case "moment":
			if rest == "now" {
				if now == nil {
					return calendar.Now().In(loc), nil
				}
				return calendar.NewMoment(now().In(loc)), nil
			}
			return calendar.ParseMoment(rest, loc)
		case "duration":
			if ms, err := strconv.ParseFloat(rest, 64); err == nil {
				return calendar.FromMilliseconds(ms)
			}
			return calendar.ParseDuration(rest)
		case "number":
			return strconv.ParseFloat(rest, 64)
		case "string":
			return rest, nil
		}
	}

	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "iInN") {
		return f, nil
	}
	return s, nil
}
