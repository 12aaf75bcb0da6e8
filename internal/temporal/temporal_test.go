package temporal

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/calendar"
	"github.com/roach88/tempo/internal/dispatch"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func installed(t *testing.T) *dispatch.Registry {
	t.Helper()
	r := dispatch.New()
	require.NoError(t, Install(r, WithClock(func() time.Time { return fixedNow })))
	return r
}

func call(t *testing.T, r *dispatch.Registry, name string, args ...any) any {
	t.Helper()
	v, err := r.Call(name, args...)
	require.NoError(t, err, "%s%v", name, args)
	return v
}

func moment(t *testing.T, s string) calendar.Moment {
	t.Helper()
	m, err := calendar.ParseMoment(s, time.UTC)
	require.NoError(t, err)
	return m
}

// allSignatures lists every operator signature the extension provides.
var allSignatures = map[string][]string{
	"add":       {"Duration, Duration", "Moment, Duration", "string, string"},
	"subtract":  {"Duration, Duration", "Moment, Duration", "Moment, Moment"},
	"multiply":  {"Duration, number", "number, Duration"},
	"divide":    {"Duration, number"},
	"equal":     {"Duration, Duration", "Moment, Moment"},
	"unequal":   {"Duration, Duration", "Moment, Moment"},
	"smaller":   {"Duration, Duration", "Moment, Moment"},
	"smallerEq": {"Duration, Duration", "Moment, Moment"},
	"larger":    {"Duration, Duration", "Moment, Moment"},
	"largerEq":  {"Duration, Duration", "Moment, Moment"},
	"now":       {""},
	"duration":  {"number", "string"},
	"moment":    {"string"},
}

func signatureStrings(sigs []dispatch.Signature) []string {
	out := make([]string, len(sigs))
	for i, s := range sigs {
		out[i] = s.String()
	}
	return out
}

func TestInstall_RegistersTypesAndSignatures(t *testing.T) {
	r := installed(t)

	assert.Equal(t, []dispatch.TypeName{"number", "string", "boolean", TypeMoment, TypeDuration}, r.Types())
	for name, want := range allSignatures {
		assert.Equal(t, want, signatureStrings(r.Signatures(name)), name)
	}
}

func TestInstall_Idempotent(t *testing.T) {
	r := installed(t)
	require.NoError(t, Install(r))
	require.NoError(t, Install(r))

	// Exactly one tag per name.
	assert.Len(t, r.Types(), 5)

	// No signature evicted, none duplicated.
	for name, want := range allSignatures {
		assert.Equal(t, want, signatureStrings(r.Signatures(name)), name)
	}

	m := moment(t, "2024-01-01T00:00:00Z")
	d := calendar.NewDuration(1000)
	assert.Equal(t, "2024-01-01T00:00:01.000Z", call(t, r, "add", m, d).(calendar.Moment).String())
	assert.Equal(t, calendar.NewDuration(2000), call(t, r, "add", d, d))
	assert.Equal(t, "abcd", call(t, r, "add", "ab", "cd"))
}

func TestInstall_AfterForeignMomentTag(t *testing.T) {
	r := dispatch.New()
	require.NoError(t, r.AddType(dispatch.Tag{Name: TypeMoment, Test: IsMoment}))

	require.NoError(t, Install(r))
	assert.Len(t, r.Types(), 5)
	assert.NotEmpty(t, r.Signatures("subtract"))
}

type failingHost struct {
	*dispatch.Registry
	findErr error
}

func (h *failingHost) FindType(name dispatch.TypeName) (dispatch.Tag, error) {
	return dispatch.Tag{}, h.findErr
}

func TestRegisterType_PropagatesUnexpectedLookupFailure(t *testing.T) {
	boom := errors.New("registry offline")
	h := &failingHost{Registry: dispatch.New(), findErr: boom}

	_, err := RegisterType(h, TypeMoment, IsMoment)
	assert.ErrorIs(t, err, boom)
}

func TestRegisterType_SkipsExisting(t *testing.T) {
	r := dispatch.New()

	added, err := RegisterType(r, TypeMoment, IsMoment)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = RegisterType(r, TypeMoment, IsMoment)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestSubtractMoments_RoundTrip(t *testing.T) {
	r := installed(t)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		m1 := calendar.NewMoment(time.UnixMilli(rng.Int63n(4e12) - 1e12).UTC())
		m2 := calendar.NewMoment(time.UnixMilli(rng.Int63n(4e12) - 1e12).UTC())

		d := call(t, r, "subtract", m1, m2).(calendar.Duration)
		require.Equal(t, m1.UnixMilli()-m2.UnixMilli(), d.AsMilliseconds())

		back := call(t, r, "add", m2, d)
		require.Equal(t, true, call(t, r, "equal", back, m1))
	}
}

func TestDurations_AddSubtractRoundTrip(t *testing.T) {
	r := installed(t)
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 200; i++ {
		d1 := calendar.NewDuration(rng.Int63n(1e12) - 5e11)
		d2 := calendar.NewDuration(rng.Int63n(1e12) - 5e11)

		sum := call(t, r, "add", d1, d2)
		back := call(t, r, "subtract", sum, d2)
		require.Equal(t, true, call(t, r, "equal", back, d1))
	}
}

func TestMomentArithmetic_DoesNotMutateOperands(t *testing.T) {
	r := installed(t)
	m := moment(t, "2024-01-31T00:00:00Z")
	d := calendar.DurationOf(1, 0, 0)

	later := call(t, r, "add", m, d).(calendar.Moment)
	earlier := call(t, r, "subtract", m, d).(calendar.Moment)

	assert.Equal(t, "2024-02-29T00:00:00.000Z", later.String())
	assert.Equal(t, "2023-12-31T00:00:00.000Z", earlier.String())
	assert.Equal(t, "2024-01-31T00:00:00.000Z", m.String())
	assert.Equal(t, calendar.DurationOf(1, 0, 0), d)
}

func TestScaling_Floors(t *testing.T) {
	r := installed(t)
	d := calendar.NewDuration(10)

	tripled := call(t, r, "multiply", d, 3)
	assert.Equal(t, calendar.NewDuration(30), tripled)
	assert.Equal(t, calendar.NewDuration(30), call(t, r, "multiply", 3, d))
	assert.Equal(t, calendar.NewDuration(10), call(t, r, "divide", tripled, 3))

	assert.Equal(t, calendar.NewDuration(3), call(t, r, "multiply", d, 1.0/3))
	assert.Equal(t, calendar.NewDuration(3), call(t, r, "divide", d, 3))
	assert.Equal(t, calendar.NewDuration(-4), call(t, r, "divide", calendar.NewDuration(-10), 3), "floor, not round toward zero")
	assert.Equal(t, calendar.NewDuration(3), call(t, r, "multiply", d, 0.35))
}

func TestScaling_CollapsesCalendarComponents(t *testing.T) {
	r := installed(t)
	got := call(t, r, "multiply", calendar.DurationOf(1, 1, 0), 2).(calendar.Duration)
	assert.Equal(t, int64(2*31*86400000), got.Milliseconds())
	assert.Zero(t, got.Months())
	assert.Zero(t, got.Days())
}

func TestDivide_ByZeroFails(t *testing.T) {
	r := installed(t)
	_, err := r.Call("divide", calendar.NewDuration(10), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrNonFinite)
	assert.False(t, dispatch.IsUnsupportedOperands(err))
}

func TestNowBinding_WallClockByDefault(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	r := dispatch.New()
	require.NoError(t, Install(r, WithLocation(loc)))

	before := time.Now().Truncate(time.Millisecond)
	m := call(t, r, "now").(calendar.Moment)
	assert.False(t, m.Time().Before(before))
	assert.Equal(t, loc, m.Time().Location())
}

func TestDurationBinding_RejectsOutOfRange(t *testing.T) {
	r := installed(t)
	for _, lit := range []string{"PT99999999999999999999S", "P99999999999999999999D", "P300000000Y"} {
		_, err := r.Call("duration", lit)
		assert.ErrorIs(t, err, calendar.ErrOutOfRange, lit)
	}
}

func TestDurationArithmetic_OutOfRangeFails(t *testing.T) {
	r := installed(t)
	big := call(t, r, "duration", "PT2562047788015H")

	_, err := r.Call("add", big, big)
	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrOutOfRange)
	assert.Contains(t, err.Error(), "add: duration out of range")

	negBig := call(t, r, "duration", "-PT2562047788015H")
	_, err = r.Call("subtract", big, negBig)
	assert.ErrorIs(t, err, calendar.ErrOutOfRange)

	assert.Equal(t, true, call(t, r, "larger", big, call(t, r, "duration", "PT1S")))
}

func TestMomentComparisons_Totality(t *testing.T) {
	r := installed(t)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		a := calendar.NewMoment(time.UnixMilli(rng.Int63n(1e6)))
		b := calendar.NewMoment(time.UnixMilli(rng.Int63n(1e6)))
		if a.IsSame(b) {
			continue
		}
		smaller := call(t, r, "smaller", a, b).(bool)
		larger := call(t, r, "larger", a, b).(bool)
		require.NotEqual(t, smaller, larger)
		require.Equal(t, false, call(t, r, "equal", a, b))
		require.Equal(t, true, call(t, r, "unequal", a, b))
	}
}

func TestComparisons(t *testing.T) {
	r := installed(t)
	early := moment(t, "2024-03-10T12:00:00Z")
	late := moment(t, "2024-03-10T12:00:01Z")
	short := calendar.NewDuration(1000)
	long := calendar.NewDuration(2000)

	tests := []struct {
		op   string
		a, b any
		want bool
	}{
		{"equal", early, early, true},
		{"equal", short, calendar.DurationOf(0, 0, 1000), true},
		{"unequal", early, late, true},
		{"unequal", short, short, false},
		{"smaller", early, late, true},
		{"smaller", long, short, false},
		{"smallerEq", early, early, true},
		{"smallerEq", short, long, true},
		{"larger", late, early, true},
		{"larger", short, long, false},
		{"largerEq", late, late, true},
		{"largerEq", long, short, true},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, r, tt.op, tt.a, tt.b))
		})
	}
}

func TestDurationComparison_CalendarEstimatePassesThrough(t *testing.T) {
	r := installed(t)
	month, err := calendar.ParseDuration("P1M")
	require.NoError(t, err)
	days29, err := calendar.ParseDuration("P29D")
	require.NoError(t, err)
	days30, err := calendar.ParseDuration("P30D")
	require.NoError(t, err)

	assert.Equal(t, true, call(t, r, "larger", month, days29))
	assert.Equal(t, true, call(t, r, "equal", month, days30))
}

func TestUnsupportedSignatures(t *testing.T) {
	r := installed(t)
	m := moment(t, "2024-03-10T12:00:00Z")
	d := calendar.NewDuration(1)

	cases := []struct {
		op    string
		args  []any
		types []dispatch.TypeName
	}{
		{"add", []any{m, m}, []dispatch.TypeName{TypeMoment, TypeMoment}},
		{"add", []any{d, m}, []dispatch.TypeName{TypeDuration, TypeMoment}},
		{"subtract", []any{d, m}, []dispatch.TypeName{TypeDuration, TypeMoment}},
		{"divide", []any{3, d}, []dispatch.TypeName{"number", TypeDuration}},
		{"multiply", []any{d, d}, []dispatch.TypeName{TypeDuration, TypeDuration}},
		{"equal", []any{m, d}, []dispatch.TypeName{TypeMoment, TypeDuration}},
		{"add", []any{"a", 1}, []dispatch.TypeName{"string", "number"}},
	}

	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			v, err := r.Call(tc.op, tc.args...)
			assert.Nil(t, v)

			var ue *dispatch.UnsupportedOperandTypesError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tc.op, ue.Function)
			assert.Equal(t, tc.types, ue.Types)
		})
	}
}

func TestNowScenario(t *testing.T) {
	r := installed(t)

	n := call(t, r, "now").(calendar.Moment)
	assert.Equal(t, "2024-03-10T12:00:00.000Z", n.String())

	hour := call(t, r, "duration", 3600000)
	later := call(t, r, "add", n, hour).(calendar.Moment)
	assert.Equal(t, "2024-03-10T13:00:00.000Z", later.String())

	back := call(t, r, "subtract", later, n).(calendar.Duration)
	assert.Equal(t, int64(3600000), back.AsMilliseconds())
}

func TestBindings(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	r := dispatch.New()
	require.NoError(t, Install(r, WithLocation(loc), WithClock(func() time.Time { return fixedNow })))

	n := call(t, r, "now").(calendar.Moment)
	assert.Equal(t, "2024-03-10T14:00:00.000+02:00", n.String())

	m := call(t, r, "moment", "2024-03-10T00:00:00").(calendar.Moment)
	assert.Equal(t, "2024-03-10T00:00:00.000+02:00", m.String())

	d := call(t, r, "duration", "P1M")
	assert.Equal(t, calendar.DurationOf(1, 0, 0), d)

	d = call(t, r, "duration", 2.9)
	assert.Equal(t, calendar.NewDuration(2), d)

	_, err := r.Call("duration", "soon")
	var pe *calendar.ParseError
	assert.ErrorAs(t, err, &pe)
}
