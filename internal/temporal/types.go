package temporal

import (
	"github.com/roach88/tempo/internal/calendar"
	"github.com/roach88/tempo/internal/dispatch"
)

// Type names registered by Install.
const (
	TypeMoment   dispatch.TypeName = "Moment"
	TypeDuration dispatch.TypeName = "Duration"
)

// Host is the part of a dispatch registry the extension needs.
type Host interface {
	AddType(tag dispatch.Tag) error
	FindType(name dispatch.TypeName) (dispatch.Tag, error)
	Import(fns []*dispatch.Function, opts dispatch.ImportOptions) error
}

// IsMoment reports whether v is a calendar.Moment.
func IsMoment(v any) bool {
	_, ok := v.(calendar.Moment)
	return ok
}

// IsDuration reports whether v is a calendar.Duration.
func IsDuration(v any) bool {
	_, ok := v.(calendar.Duration)
	return ok
}

// RegisterType adds a tag unless one with the same name exists.
//
// FindType fails with a LookupError for unknown names; that failure means
// the tag is safe to add. A DuplicateTypeError from a concurrent add is
// treated the same as finding the tag. It reports whether the tag was added.
func RegisterType(host Host, name dispatch.TypeName, test dispatch.Predicate) (bool, error) {
	_, err := host.FindType(name)
	if err == nil {
		return false, nil
	}
	if !dispatch.IsLookupError(err) {
		return false, err
	}

	if err := host.AddType(dispatch.Tag{Name: name, Test: test}); err != nil {
		if dispatch.IsDuplicateType(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
