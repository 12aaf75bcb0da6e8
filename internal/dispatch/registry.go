package dispatch

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// Predicate reports whether a runtime value belongs to a type.
type Predicate func(v any) bool

// Tag is a named runtime type.
type Tag struct {
	Name TypeName
	Test Predicate
}

// ImportOptions controls Import.
type ImportOptions struct {
	// Silent suppresses the warning logged when an import replaces an
	// existing signature. It has no effect on resolution.
	Silent bool
}

// Registry is the process-wide type and function table.
//
// Thread-safety: all methods are safe for concurrent use. Registration is
// expected once at startup; calls take a read lock only.
type Registry struct {
	mu        sync.RWMutex
	tags      []Tag // registration order; first match wins
	tagIndex  map[TypeName]int
	functions map[string]map[string]overload
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for import warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates a Registry containing only the built-in types.
func New(opts ...Option) *Registry {
	r := &Registry{
		tagIndex:  make(map[TypeName]int),
		functions: make(map[string]map[string]overload),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var builtinTags = []Tag{
	{Name: TypeNumber, Test: func(v any) bool { _, ok := toNumber(v); return ok }},
	{Name: TypeString, Test: func(v any) bool { _, ok := v.(string); return ok }},
	{Name: TypeBoolean, Test: func(v any) bool { _, ok := v.(bool); return ok }},
}

func builtinTag(name TypeName) (Tag, bool) {
	for _, t := range builtinTags {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}

// AddType registers a new type tag. The name must be unused, including by
// the built-in types, or a DuplicateTypeError is returned.
func (r *Registry) AddType(tag Tag) error {
	if tag.Name == "" || tag.Name == TypeOther {
		return fmt.Errorf("add type: invalid name %q", string(tag.Name))
	}
	if tag.Test == nil {
		return fmt.Errorf("add type %q: predicate is required", string(tag.Name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := builtinTag(tag.Name); ok {
		return &DuplicateTypeError{Name: tag.Name}
	}
	if _, ok := r.tagIndex[tag.Name]; ok {
		return &DuplicateTypeError{Name: tag.Name}
	}
	r.tagIndex[tag.Name] = len(r.tags)
	r.tags = append(r.tags, tag)
	return nil
}

// FindType returns the tag registered under name, or a LookupError.
func (r *Registry) FindType(name TypeName) (Tag, error) {
	if t, ok := builtinTag(name); ok {
		return t, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.tagIndex[name]
	if !ok {
		return Tag{}, &LookupError{Name: name}
	}
	return r.tags[i], nil
}

// HasType reports whether name is registered.
func (r *Registry) HasType(name TypeName) bool {
	_, err := r.FindType(name)
	return err == nil
}

// Types returns the built-in types followed by registered tags in
// registration order.
func (r *Registry) Types() []TypeName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]TypeName, 0, len(builtinTags)+len(r.tags))
	for _, t := range builtinTags {
		names = append(names, t.Name)
	}
	for _, t := range r.tags {
		names = append(names, t.Name)
	}
	return names
}

// Classify returns the type of v and v in the form implementations
// receive it. Built-in types are checked first, then registered tags in
// registration order. Unmatched values classify as TypeOther.
//
// Predicates run without the registry lock held, so a predicate may
// itself call into the registry.
func (r *Registry) Classify(v any) (TypeName, any) {
	return classify(r.snapshotTags(), v)
}

// snapshotTags returns the registered tags. Tags are only ever appended,
// so the returned slice stays valid after the lock is released.
func (r *Registry) snapshotTags() []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tags[:len(r.tags):len(r.tags)]
}

func classify(tags []Tag, v any) (TypeName, any) {
	if n, ok := toNumber(v); ok {
		return TypeNumber, n
	}
	switch v.(type) {
	case string:
		return TypeString, v
	case bool:
		return TypeBoolean, v
	}
	for _, t := range tags {
		if t.Test(v) {
			return t.Name, v
		}
	}
	return TypeOther, v
}

// Import merges fns into the registry. Every signature type must already
// exist; on any validation failure nothing is imported.
//
// Existing signatures of the same function survive unless the import
// carries the exact same signature, in which case the imported
// implementation replaces it.
func (r *Registry) Import(fns []*Function, opts ImportOptions) error {
	for _, f := range fns {
		if f == nil {
			return fmt.Errorf("import: nil function")
		}
		for _, ov := range f.overloads {
			for _, t := range ov.sig {
				if _, err := r.FindType(t); err != nil {
					return fmt.Errorf("import %s(%s): %w", f.name, ov.sig, err)
				}
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range fns {
		table, ok := r.functions[f.name]
		if !ok {
			table = make(map[string]overload, len(f.overloads))
			r.functions[f.name] = table
		}
		for key, ov := range f.overloads {
			if _, exists := table[key]; exists && !opts.Silent {
				r.logger.Warn("import replaces existing signature",
					"function", f.name,
					"signature", ov.sig.String(),
				)
			}
			table[key] = ov
		}
	}
	return nil
}

// Resolve returns the implementation of name for the given argument types.
func (r *Registry) Resolve(name string, types ...TypeName) (Impl, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(name, types)
}

func (r *Registry) resolve(name string, types []TypeName) (Impl, error) {
	table, ok := r.functions[name]
	if !ok {
		return nil, &UnknownFunctionError{Name: name}
	}
	ov, ok := table[Signature(types).key()]
	if !ok {
		return nil, &UnsupportedOperandTypesError{Function: name, Types: types}
	}
	return ov.fn, nil
}

// Call classifies args, resolves name against their types and invokes the
// matching implementation.
func (r *Registry) Call(name string, args ...any) (any, error) {
	tags := r.snapshotTags()
	types := make([]TypeName, len(args))
	normalized := make([]any, len(args))
	for i, a := range args {
		types[i], normalized[i] = classify(tags, a)
	}
	fn, err := r.Resolve(name, types...)
	if err != nil {
		return nil, err
	}
	return fn(normalized...)
}

// Functions returns the registered function names in sorted order.
func (r *Registry) Functions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signatures returns the signatures registered for name in sorted order.
func (r *Registry) Signatures(name string) []Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedSignatures(r.functions[name])
}

// toNumber widens every Go integer and float kind to float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
