// Package pset implements typed parameters and ordered parameter sets.
//
// A PSet never changes after construction. With returns a new set and the
// accessors hand out copies, so a set can be shared between modules.
package pset

import (
	"errors"
	"slices"
	"strconv"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
)

// Entry is one named parameter of a PSet.
type Entry struct {
	Name  string
	Value Value
}

// P builds an Entry.
func P(name string, v Value) Entry { return Entry{Name: name, Value: v} }

// PSet is an ordered mapping from parameter name to Value.
type PSet struct {
	entries []Entry
	index   map[string]int
}

// New builds a PSet from entries in order.
func New(entries ...Entry) (*PSet, error) {
	p := &PSet{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if err := p.add(e); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// MustNew is New for declarations fixed at compile time. It panics on error.
func MustNew(entries ...Entry) *PSet {
	p, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *PSet) add(e Entry) error {
	if !validName(e.Name) {
		return cfgerr.Malformed(e.Name, "invalid parameter name %q", e.Name)
	}
	if err := checkValue(e); err != nil {
		return err
	}
	if _, dup := p.index[e.Name]; dup {
		return cfgerr.Duplicate(e.Name, e.Name)
	}
	p.index[e.Name] = len(p.entries)
	p.entries = append(p.entries, e)
	return nil
}

func checkValue(e Entry) error {
	if e.Value.IsZero() {
		return cfgerr.Malformed(e.Name, "parameter has no value")
	}
	var tags []InputTag
	switch d := e.Value.data.(type) {
	case InputTag:
		tags = []InputTag{d}
	case []InputTag:
		tags = d
	}
	for _, t := range tags {
		if !t.Valid() {
			return cfgerr.Malformed(e.Name, "input tag %q needs a module label and no ':' inside its parts", t.String())
		}
	}
	return nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Len returns the number of parameters.
func (p *PSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Names returns parameter names in declaration order.
func (p *PSet) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Name
	}
	return out
}

// Entries returns a copy of the parameters in declaration order.
func (p *PSet) Entries() []Entry {
	if p == nil {
		return nil
	}
	return slices.Clone(p.entries)
}

// Get returns the value stored under name.
func (p *PSet) Get(name string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	i, ok := p.index[name]
	if !ok {
		return Value{}, false
	}
	return p.entries[i].Value, true
}

// Has reports whether name is set.
func (p *PSet) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// With returns a copy of p with the entries applied. An existing parameter
// keeps its slot and must keep its kind; new parameters are appended.
func (p *PSet) With(entries ...Entry) (*PSet, error) {
	out := &PSet{
		entries: p.Entries(),
		index:   make(map[string]int, p.Len()+len(entries)),
	}
	for i, e := range out.entries {
		out.index[e.Name] = i
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Name]; dup {
			return nil, cfgerr.Duplicate(e.Name, e.Name)
		}
		seen[e.Name] = struct{}{}
		i, exists := out.index[e.Name]
		if !exists {
			if err := out.add(e); err != nil {
				return nil, err
			}
			continue
		}
		if err := checkValue(e); err != nil {
			return nil, err
		}
		have := out.entries[i].Value.kind
		if !compatible(have, e.Value.kind) {
			return nil, cfgerr.Mismatch(e.Name, string(have), string(e.Value.kind))
		}
		out.entries[i].Value = e.Value
	}
	return out, nil
}

// A reference stands for the set it names, so the two are interchangeable.
func compatible(have, got Kind) bool {
	if have == got {
		return true
	}
	return (have == KindRef && got == KindPSet) || (have == KindPSet && got == KindRef)
}

// Equal reports whether both sets hold equal values under the same names in
// the same order.
func (p *PSet) Equal(o *PSet) bool {
	if p.Len() != o.Len() {
		return false
	}
	for i := range p.Len() {
		a, b := p.entries[i], o.entries[i]
		if a.Name != b.Name || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// Refs returns the names referenced by ref values, depth first.
func (p *PSet) Refs() []string {
	var out []string
	for _, e := range p.Entries() {
		out = append(out, e.Value.refs()...)
	}
	return out
}

func (v Value) refs() []string {
	switch d := v.data.(type) {
	case *PSet:
		return d.Refs()
	case []*PSet:
		var out []string
		for _, ps := range d {
			out = append(out, ps.Refs()...)
		}
		return out
	}
	if name, ok := v.RefName(); ok {
		return []string{name}
	}
	return nil
}

// Resolve returns a copy of p where every ref value is replaced by the set
// lookup returns for its name. Every unknown name is reported.
func (p *PSet) Resolve(lookup func(name string) (*PSet, bool)) (*PSet, error) {
	return p.resolve("", lookup)
}

func (p *PSet) resolve(path string, lookup func(string) (*PSet, bool)) (*PSet, error) {
	out := &PSet{
		entries: make([]Entry, 0, p.Len()),
		index:   make(map[string]int, p.Len()),
	}
	var errs []error
	for _, e := range p.Entries() {
		v, err := e.Value.resolve(cfgerr.Join(path, e.Name), lookup)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.index[e.Name] = len(out.entries)
		out.entries = append(out.entries, Entry{Name: e.Name, Value: v})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (v Value) resolve(path string, lookup func(string) (*PSet, bool)) (Value, error) {
	switch d := v.data.(type) {
	case *PSet:
		ps, err := d.resolve(path, lookup)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindPSet, untracked: v.untracked, data: ps}, nil
	case []*PSet:
		out := make([]*PSet, len(d))
		var errs []error
		for i, ps := range d {
			r, err := ps.resolve(cfgerr.Join(path, strconv.Itoa(i)), lookup)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out[i] = r
		}
		if len(errs) > 0 {
			return Value{}, errors.Join(errs...)
		}
		return Value{kind: KindVPSet, untracked: v.untracked, data: out}, nil
	}
	name, ok := v.RefName()
	if !ok {
		return v, nil
	}
	target, found := lookup(name)
	if !found {
		return Value{}, cfgerr.Unresolved(path, name)
	}
	return Value{kind: KindPSet, untracked: v.untracked, data: target}, nil
}
