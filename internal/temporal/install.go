package temporal

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/tempo/internal/calendar"
	"github.com/roach88/tempo/internal/dispatch"
)

type settings struct {
	now      func() time.Time
	location *time.Location
	silent   bool
	logger   *slog.Logger
}

// Option configures Install and Bindings.
type Option func(*settings)

// WithClock sets the clock behind now(). A nil clock means calendar.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithLocation sets the location Moments produced by now() and moment()
// use for calendar arithmetic. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		s.location = loc
	}
}

// WithSilent controls whether re-imported signatures are logged by the
// registry. Installs are silent by default since re-installation is expected.
func WithSilent(silent bool) Option {
	return func(s *settings) {
		s.silent = silent
	}
}

// WithLogger sets the logger for absorbed registration errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		location: time.UTC,
		silent:   true,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bindings returns the constructors exposed next to the operators:
//
//	now()              -> Moment
//	duration(number)   -> Duration of floor(n) ms
//	duration(string)   -> Duration from ISO 8601 ("P1M", "PT1H")
//	moment(string)     -> Moment from RFC 3339
func Bindings(opts ...Option) []*dispatch.Function {
	s := newSettings(opts)
	return []*dispatch.Function{
		dispatch.MustTyped("now", dispatch.Defs{
			"": dispatch.Nullary(func() calendar.Moment {
				if s.now == nil {
					return calendar.Now().In(s.location)
				}
				return calendar.NewMoment(s.now().In(s.location))
			}),
		}),
		dispatch.MustTyped("duration", dispatch.Defs{
			"number": dispatch.Unary(calendar.FromMilliseconds),
			"string": dispatch.Unary(calendar.ParseDuration),
		}),
		dispatch.MustTyped("moment", dispatch.Defs{
			"string": dispatch.Unary(func(v string) (calendar.Moment, error) {
				return calendar.ParseMoment(v, s.location)
			}),
		}),
	}
}

// Install registers the Moment and Duration tags, then imports the
// operator table and bindings. Tags come first because every signature
// refers to them.
//
// Re-installing leaves one tag per name and every signature resolvable.
// Registration conflicts are absorbed; only failures that leave the
// registry unusable are returned.
func Install(host Host, opts ...Option) error {
	s := newSettings(opts)

	tags := []dispatch.Tag{
		{Name: TypeMoment, Test: IsMoment},
		{Name: TypeDuration, Test: IsDuration},
	}
	for _, tag := range tags {
		added, err := RegisterType(host, tag.Name, tag.Test)
		if err != nil {
			return fmt.Errorf("install temporal: register %s: %w", tag.Name, err)
		}
		if !added {
			s.logger.Debug("type already registered", "type", string(tag.Name))
		}
	}

	fns := append(Operators(), Bindings(opts...)...)
	if err := host.Import(fns, dispatch.ImportOptions{Silent: s.silent}); err != nil {
		return fmt.Errorf("install temporal: %w", err)
	}
	s.logger.Debug("temporal extension installed", "functions", len(fns))
	return nil
}
