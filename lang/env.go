package lang

import (
	"iter"
	"maps"
	"slices"
)

// Env is a variable-binding environment.
//
// The core only reads and writes specific names (capture groups and loop
// variables); evaluators use All to hand every visible binding to the
// expression runtime.
type Env interface {
	// Lookup returns the value bound to name, searching outer layers when
	// the name is not bound locally.
	Lookup(name string) (Value, bool)
	// Set binds name in the innermost layer.
	Set(name string, v Value)
	// Delete removes a binding from the innermost layer only.
	Delete(name string)
	// Layer returns a child environment whose bindings shadow the receiver's
	// without mutating it.
	Layer() Env
	// All yields every visible binding exactly once, innermost first.
	All() iter.Seq2[string, Value]
}

// Bindings is the map-backed [Env] used by the engine.
// The zero value is an empty root environment.
type Bindings struct {
	parent Env
	vars   map[string]Value
}

// NewBindings returns a root environment seeded with a copy of vars.
func NewBindings(vars map[string]Value) *Bindings {
	return &Bindings{vars: maps.Clone(vars)}
}

// BindingsOf returns a root environment seeded from Go values, converting
// each with [ValueOf].
func BindingsOf(vars map[string]any) *Bindings {
	b := &Bindings{vars: make(map[string]Value, len(vars))}
	for k, v := range vars {
		b.vars[k] = ValueOf(v)
	}

	return b
}

func (b *Bindings) Lookup(name string) (Value, bool) {
	if v, ok := b.vars[name]; ok {
		return v, true
	}

	if b.parent != nil {
		return b.parent.Lookup(name)
	}

	return Value{}, false
}

func (b *Bindings) Set(name string, v Value) {
	if b.vars == nil {
		b.vars = make(map[string]Value)
	}

	b.vars[name] = v
}

func (b *Bindings) Delete(name string) { delete(b.vars, name) }

func (b *Bindings) Layer() Env { return &Bindings{parent: b} }

func (b *Bindings) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		seen := make(map[string]struct{}, len(b.vars))

		for _, k := range slices.Sorted(maps.Keys(b.vars)) {
			seen[k] = struct{}{}

			if !yield(k, b.vars[k]) {
				return
			}
		}

		if b.parent == nil {
			return
		}

		for k, v := range b.parent.All() {
			if _, ok := seen[k]; ok {
				continue
			}

			if !yield(k, v) {
				return
			}
		}
	}
}

// Names returns the sorted names of every binding visible in env.
func Names(env Env) []string {
	if env == nil {
		return nil
	}

	var names []string
	for k := range env.All() {
		names = append(names, k)
	}

	slices.Sort(names)

	return names
}
