// Package module binds an external processing unit, named by its type, to
// the parameter set it is configured with.
package module

import (
	"fmt"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

// Kind tells the scheduler what a module does with events.
type Kind string

const (
	KindProducer Kind = "producer"
	KindFilter   Kind = "filter"
	KindAnalyzer Kind = "analyzer"
)

// ParseKind accepts the kind names in any of their usual spellings.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "producer", "EDProducer":
		return KindProducer, nil
	case "filter", "EDFilter":
		return KindFilter, nil
	case "analyzer", "EDAnalyzer":
		return KindAnalyzer, nil
	}
	return "", fmt.Errorf("unknown module kind %q (want producer, filter or analyzer)", s)
}

// Valid reports whether k is one of the canonical kinds. Aliases such as
// EDFilter go through ParseKind first.
func (k Kind) Valid() bool {
	return k == KindProducer || k == KindFilter || k == KindAnalyzer
}

// Module is an immutable module configuration.
type Module struct {
	label    string
	kind     Kind
	typeName string
	params   *pset.PSet
}

// New validates and builds a module. A nil params is the empty set.
func New(label string, kind Kind, typeName string, params *pset.PSet) (*Module, error) {
	if label == "" {
		return nil, cfgerr.Malformed("", "module label is required")
	}
	canonical, err := ParseKind(string(kind))
	if err != nil {
		return nil, cfgerr.Malformed(label, "unknown module kind %q", kind)
	}
	if typeName == "" {
		return nil, cfgerr.Malformed(label, "module type is required")
	}
	if params == nil {
		params = pset.MustNew()
	}
	return &Module{label: label, kind: canonical, typeName: typeName, params: params}, nil
}

// MustNew is New for declarations fixed at compile time.
func MustNew(label string, kind Kind, typeName string, entries ...pset.Entry) *Module {
	m, err := New(label, kind, typeName, pset.MustNew(entries...))
	if err != nil {
		panic(err)
	}
	return m
}

func Producer(label, typeName string, entries ...pset.Entry) *Module {
	return MustNew(label, KindProducer, typeName, entries...)
}

func Filter(label, typeName string, entries ...pset.Entry) *Module {
	return MustNew(label, KindFilter, typeName, entries...)
}

func Analyzer(label, typeName string, entries ...pset.Entry) *Module {
	return MustNew(label, KindAnalyzer, typeName, entries...)
}

func (m *Module) Label() string      { return m.label }
func (m *Module) Kind() Kind         { return m.kind }
func (m *Module) Type() string       { return m.typeName }
func (m *Module) Params() *pset.PSet { return m.params }

func (m *Module) String() string {
	return fmt.Sprintf("%s %s(%q)", m.label, m.kind, m.typeName)
}

// Steps makes a module usable as a sequence item.
func (m *Module) Steps() []sequence.Step {
	return []sequence.Step{{Label: m.label}}
}

// Clone returns a module of the same type and kind under a new label with
// the overrides applied to a copy of the parameters.
func (m *Module) Clone(label string, overrides ...pset.Entry) (*Module, error) {
	params, err := m.params.With(overrides...)
	if err != nil {
		return nil, fmt.Errorf("clone %s of %s: %w", label, m.label, err)
	}
	return New(label, m.kind, m.typeName, params)
}

// WithParams returns a copy of m using params.
func (m *Module) WithParams(params *pset.PSet) *Module {
	out := *m
	out.params = params
	return &out
}
