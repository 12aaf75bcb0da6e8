package dispatch

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float32

type point struct{ X, Y int }

func pointTag() Tag {
	return Tag{Name: "Point", Test: func(v any) bool { _, ok := v.(point); return ok }}
}

func constImpl(v any) Impl {
	return func(args ...any) (any, error) { return v, nil }
}

func TestFindType_Builtins(t *testing.T) {
	r := New()
	for _, name := range []TypeName{TypeNumber, TypeString, TypeBoolean} {
		tag, err := r.FindType(name)
		require.NoError(t, err)
		assert.Equal(t, name, tag.Name)
	}
}

func TestFindType_UnknownFailsWithLookupError(t *testing.T) {
	r := New()

	_, err := r.FindType("Moment")
	require.Error(t, err)
	assert.True(t, IsLookupError(err))

	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, TypeName("Moment"), le.Name)
}

func TestHasType(t *testing.T) {
	r := New()
	assert.True(t, r.HasType(TypeString))
	assert.False(t, r.HasType("Point"))

	require.NoError(t, r.AddType(pointTag()))
	assert.True(t, r.HasType("Point"))
}

func TestAddType(t *testing.T) {
	r := New()
	require.NoError(t, r.AddType(pointTag()))

	tag, err := r.FindType("Point")
	require.NoError(t, err)
	assert.True(t, tag.Test(point{}))
	assert.Equal(t, []TypeName{TypeNumber, TypeString, TypeBoolean, "Point"}, r.Types())
}

func TestAddType_Duplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.AddType(pointTag()))

	err := r.AddType(pointTag())
	assert.True(t, IsDuplicateType(err))
	assert.Len(t, r.Types(), 4, "duplicate must not be appended")

	err = r.AddType(Tag{Name: TypeString, Test: func(any) bool { return false }})
	assert.True(t, IsDuplicateType(err), "built-in names are taken")
}

func TestAddType_Invalid(t *testing.T) {
	r := New()
	assert.Error(t, r.AddType(Tag{Name: "", Test: func(any) bool { return true }}))
	assert.Error(t, r.AddType(Tag{Name: TypeOther, Test: func(any) bool { return true }}))
	assert.Error(t, r.AddType(Tag{Name: "NoPredicate"}))
}

func TestClassify(t *testing.T) {
	r := New()
	require.NoError(t, r.AddType(pointTag()))

	tests := []struct {
		name     string
		in       any
		wantType TypeName
		wantVal  any
	}{
		{"int widened", 3, TypeNumber, float64(3)},
		{"int64 widened", int64(-7), TypeNumber, float64(-7)},
		{"uint8 widened", uint8(9), TypeNumber, float64(9)},
		{"float32 widened", float32(0.5), TypeNumber, float64(0.5)},
		{"named float kind is not a number", celsius(1), TypeOther, celsius(1)},
		{"string", "ab", TypeString, "ab"},
		{"bool", true, TypeBoolean, true},
		{"registered tag", point{1, 2}, "Point", point{1, 2}},
		{"unmatched", struct{}{}, TypeOther, struct{}{}},
		{"nil", nil, TypeOther, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, val := r.Classify(tt.in)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantVal, val)
		})
	}
}

func TestClassify_FirstRegisteredTagWins(t *testing.T) {
	r := New()
	require.NoError(t, r.AddType(Tag{Name: "First", Test: func(v any) bool { _, ok := v.(point); return ok }}))
	require.NoError(t, r.AddType(Tag{Name: "Second", Test: func(v any) bool { _, ok := v.(point); return ok }}))

	typ, _ := r.Classify(point{})
	assert.Equal(t, TypeName("First"), typ)
}

func TestImport_MergesSignaturesAcrossCalls(t *testing.T) {
	r := New()
	require.NoError(t, r.AddType(pointTag()))

	// Two separate imports under the same name: the second must not evict
	// the first.
	require.NoError(t, r.Import([]*Function{
		MustTyped("add", Defs{"Point, Point": constImpl("points")}),
	}, ImportOptions{Silent: true}))
	require.NoError(t, r.Import([]*Function{
		MustTyped("add", Defs{"string, string": constImpl("strings")}),
	}, ImportOptions{Silent: true}))

	got, err := r.Call("add", point{}, point{})
	require.NoError(t, err)
	assert.Equal(t, "points", got)

	got, err = r.Call("add", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "strings", got)

	assert.Equal(t, []Signature{{"Point", "Point"}, {TypeString, TypeString}}, r.Signatures("add"))
}

func TestImport_SameSignatureReplaces(t *testing.T) {
	var logs bytes.Buffer
	r := New(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	require.NoError(t, r.Import([]*Function{MustTyped("f", Defs{"number": constImpl(1)})}, ImportOptions{}))
	require.NoError(t, r.Import([]*Function{MustTyped("f", Defs{"number": constImpl(2)})}, ImportOptions{}))

	got, err := r.Call("f", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Len(t, r.Signatures("f"), 1)
	assert.Contains(t, logs.String(), "import replaces existing signature")
	assert.Contains(t, logs.String(), "function=f")
}

func TestImport_SilentSuppressesWarning(t *testing.T) {
	var logs bytes.Buffer
	r := New(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	fn := MustTyped("f", Defs{"number": constImpl(1)})
	require.NoError(t, r.Import([]*Function{fn}, ImportOptions{Silent: true}))
	require.NoError(t, r.Import([]*Function{fn}, ImportOptions{Silent: true}))

	assert.Empty(t, logs.String())
}

func TestImport_UnknownTypeImportsNothing(t *testing.T) {
	r := New()

	err := r.Import([]*Function{
		MustTyped("ok", Defs{"number": constImpl(1)}),
		MustTyped("bad", Defs{"Moment": constImpl(2)}),
	}, ImportOptions{Silent: true})
	require.Error(t, err)
	assert.True(t, IsLookupError(err))
	assert.Empty(t, r.Functions(), "validation failure must leave the table untouched")
}

func TestCall_UnsupportedOperandTypes(t *testing.T) {
	r := New()
	require.NoError(t, r.AddType(pointTag()))
	require.NoError(t, r.Import([]*Function{
		MustTyped("add", Defs{"string, string": constImpl("")}),
	}, ImportOptions{}))

	_, err := r.Call("add", point{}, 3)
	require.Error(t, err)
	assert.True(t, IsUnsupportedOperands(err))
	assert.Equal(t, "unsupported operand types for add: (Point, number)", err.Error())

	var ue *UnsupportedOperandTypesError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "add", ue.Function)
	assert.Equal(t, []TypeName{"Point", TypeNumber}, ue.Types)
}

func TestCall_NoCoercion(t *testing.T) {
	r := New()
	require.NoError(t, r.Import([]*Function{
		MustTyped("add", Defs{"string, string": Binary(func(a, b string) string { return a + b })}),
	}, ImportOptions{}))

	_, err := r.Call("add", "1", 2)
	assert.True(t, IsUnsupportedOperands(err))
}

func TestCall_UnknownFunction(t *testing.T) {
	_, err := New().Call("nope")
	assert.True(t, IsUnknownFunction(err))
	assert.Equal(t, `unknown function "nope"`, err.Error())
}

func TestCall_Nullary(t *testing.T) {
	r := New()
	require.NoError(t, r.Import([]*Function{
		MustTyped("answer", Defs{"": Nullary(func() int { return 42 })}),
	}, ImportOptions{}))

	got, err := r.Call("answer")
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = r.Call("answer", 1)
	assert.True(t, IsUnsupportedOperands(err))
}

func TestCall_NumbersArriveAsFloat64(t *testing.T) {
	r := New()
	require.NoError(t, r.Import([]*Function{
		MustTyped("half", Defs{"number": Unary(func(n float64) (float64, error) { return n / 2, nil })}),
	}, ImportOptions{}))

	got, err := r.Call("half", 3)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got)
}

func TestTyped_Errors(t *testing.T) {
	_, err := Typed("", Defs{"number": constImpl(1)})
	assert.Error(t, err)

	_, err = Typed("f", Defs{})
	assert.Error(t, err)

	_, err = Typed("f", Defs{"number, ": constImpl(1)})
	assert.Error(t, err)

	_, err = Typed("f", Defs{"other": constImpl(1)})
	assert.Error(t, err)

	_, err = Typed("f", Defs{"number": nil})
	assert.Error(t, err)

	_, err = Typed("f", Defs{"number,string": constImpl(1), "number, string": constImpl(2)})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "listed twice"))
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature(" Moment ,Duration ")
	require.NoError(t, err)
	assert.Equal(t, Signature{"Moment", "Duration"}, sig)
	assert.Equal(t, "Moment, Duration", sig.String())

	sig, err = ParseSignature("")
	require.NoError(t, err)
	assert.Empty(t, sig)
}

func TestBinary_ArgumentMismatchIsAnError(t *testing.T) {
	impl := Binary(func(a, b string) string { return a + b })
	_, err := impl("a", 1.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 1")
}

func TestCall_PredicateMayUseRegistry(t *testing.T) {
	r := New()
	var once sync.Once
	require.NoError(t, r.AddType(Tag{Name: "Point", Test: func(v any) bool {
		_, ok := v.(point)
		if ok {
			once.Do(func() {
				_ = r.AddType(Tag{Name: "Late", Test: func(any) bool { return false }})
			})
		}
		return ok
	}}))
	require.NoError(t, r.Import([]*Function{MustTyped("id", Defs{"Point": constImpl("p")})}, ImportOptions{Silent: true}))

	done := make(chan error, 1)
	go func() {
		_, err := r.Call("id", point{})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Call blocked while a predicate registered a type")
	}
	assert.True(t, r.HasType("Late"))
}
