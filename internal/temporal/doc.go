// Package temporal installs Moment and Duration support into a dispatch
// registry.
//
// Install registers two type tags and the operator table:
//
//	subtract  (Moment, Moment)     -> Duration
//	add       (Moment, Duration)   -> Moment
//	subtract  (Moment, Duration)   -> Moment
//	add       (Duration, Duration) -> Duration
//	subtract  (Duration, Duration) -> Duration
//	multiply  (number, Duration)   -> Duration  floor to whole ms
//	multiply  (Duration, number)   -> Duration  floor to whole ms
//	divide    (Duration, number)   -> Duration  floor to whole ms
//	add       (string, string)     -> string
//	equal, unequal, smaller, smallerEq, larger, largerEq
//	          (Moment, Moment), (Duration, Duration) -> boolean
//
// plus the bindings now(), duration(number|string) and moment(string).
//
// Duration comparisons use calendar.Duration.AsMilliseconds on both sides.
// A Duration with months has no fixed length, so comparing P1M with P29D
// compares estimates. Such comparisons are passed through, not rejected.
//
// Install is safe to call any number of times on the same registry.
package temporal
