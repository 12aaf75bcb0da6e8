// Package calendar provides the absolute and relative time values that the
// temporal operators work on.
//
// Moment is an instant with millisecond resolution that remembers the
// location it should do calendar arithmetic in. Duration is a signed span
// made of three independent components:
//
//   - months (years are folded in as 12 months)
//   - days (weeks are folded in as 7 days)
//   - milliseconds (hours, minutes and seconds)
//
// Months and days have no fixed length, so AsMilliseconds is an estimate
// for any Duration that carries them: a month counts as
// round(146097/4800) days and a day as 86400000 ms.
//
// Both types are immutable values. Every operation that "changes" a value
// returns a new one; Clone exists so callers can make that explicit.
package calendar
