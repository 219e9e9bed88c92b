// Package assembler turns loaded fragments into one immutable Process.
//
// Assembly runs in phases: index names, resolve named parameter sets, build
// modules, build sequences, build event content. Every error of a phase is
// reported and a failed phase stops assembly; nothing missing is ever
// replaced by a default.
package assembler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
	"github.com/gyaneshwarpardhi/fwconfig/internal/eventcontent"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
	"github.com/gyaneshwarpardhi/fwconfig/internal/registry"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

// Options tune assembly.
type Options struct {
	// Registry, when set, is consulted for every module type. Unknown types
	// are errors in Strict mode and warnings otherwise.
	Registry *registry.Registry
	Strict   bool
}

type declKind string

const (
	declPSet     declKind = "pset"
	declModule   declKind = "module"
	declSequence declKind = "sequence"
	declContent  declKind = "event_content"
)

type decl struct {
	kind   declKind
	source string
	idx    int
}

type builder struct {
	opts  Options
	where map[string]decl

	psetDecls    []config.NamedPSet
	moduleDecls  []config.ModuleDecl
	seqDecls     []config.SequenceDecl
	contentDecls []config.EventContentDecl

	psets    map[string]*pset.PSet
	modules  map[string]*module.Module
	seqs     map[string]*sequence.Sequence
	contents map[string]*eventcontent.Set

	visiting []string
	failed   map[string]bool
	warnings []string
}

// Build assembles every fragment of b into a Process.
func Build(b *config.Bundle, opts Options) (*Process, error) {
	bl := &builder{
		opts:     opts,
		where:    make(map[string]decl),
		psets:    make(map[string]*pset.PSet),
		modules:  make(map[string]*module.Module),
		seqs:     make(map[string]*sequence.Sequence),
		contents: make(map[string]*eventcontent.Set),
		failed:   make(map[string]bool),
	}
	phases := []struct {
		name string
		run  func() []error
	}{
		{"index", func() []error { return bl.index(b) }},
		{"psets", bl.buildPSets},
		{"modules", bl.buildModules},
		{"sequences", bl.buildSequences},
		{"event content", bl.buildContents},
	}
	for _, ph := range phases {
		if errs := ph.run(); len(errs) > 0 {
			return nil, fmt.Errorf("assemble %s: %w", ph.name, errors.Join(errs...))
		}
	}
	return bl.process(b), nil
}

// index records where every name is declared. All kinds share one scope.
func (bl *builder) index(b *config.Bundle) []error {
	var errs []error
	add := func(name string, kind declKind, source string, idx int) {
		if name == "" {
			errs = append(errs, cfgerr.Malformed(source, "%s declaration without a name", kind))
			return
		}
		if prev, dup := bl.where[name]; dup {
			errs = append(errs, cfgerr.New(cfgerr.ErrDuplicateName, name,
				"declared as %s in %s and again as %s in %s", prev.kind, prev.source, kind, source))
			return
		}
		bl.where[name] = decl{kind: kind, source: source, idx: idx}
	}
	for _, f := range b.Fragments {
		for _, d := range f.PSets {
			add(d.Name, declPSet, f.Source, len(bl.psetDecls))
			bl.psetDecls = append(bl.psetDecls, d)
		}
		for _, d := range f.Modules {
			add(d.Label, declModule, f.Source, len(bl.moduleDecls))
			bl.moduleDecls = append(bl.moduleDecls, d)
		}
		for _, d := range f.Sequences {
			add(d.Name, declSequence, f.Source, len(bl.seqDecls))
			bl.seqDecls = append(bl.seqDecls, d)
		}
		for _, d := range f.EventContent {
			add(d.Name, declContent, f.Source, len(bl.contentDecls))
			bl.contentDecls = append(bl.contentDecls, d)
		}
	}
	return errs
}

// skipped is returned for a declaration whose own error was already
// reported.
type skipped struct{ name string }

func (s *skipped) Error() string { return s.name + " failed to build" }

// memo builds name once. It detects cycles through the visiting stack and
// reports a failure only to the first caller.
func memo[T any](bl *builder, cache map[string]T, name string, build func() (T, error)) (T, error) {
	var zero T
	if v, ok := cache[name]; ok {
		return v, nil
	}
	if bl.failed[name] {
		return zero, &skipped{name: name}
	}
	for i, n := range bl.visiting {
		if n == name {
			cycle := append(append([]string{}, bl.visiting[i:]...), name)
			return zero, cfgerr.New(cfgerr.ErrCyclicReference, name, "%s", strings.Join(cycle, " -> "))
		}
	}
	bl.visiting = append(bl.visiting, name)
	v, err := build()
	bl.visiting = bl.visiting[:len(bl.visiting)-1]
	if err != nil {
		bl.failed[name] = true
		return zero, err
	}
	cache[name] = v
	return v, nil
}

func collect(errs []error, err error) []error {
	if _, ok := err.(*skipped); ok || err == nil {
		return errs
	}
	return append(errs, err)
}

func (bl *builder) is(name string, kind declKind) bool {
	d, ok := bl.where[name]
	return ok && d.kind == kind
}

func (bl *builder) lookupPSet(name string) (*pset.PSet, bool) {
	ps, ok := bl.psets[name]
	return ps, ok
}

func (bl *builder) buildPSets() []error {
	var errs []error
	for _, d := range bl.psetDecls {
		_, err := bl.pset(d.Name)
		errs = collect(errs, err)
	}
	return errs
}

func (bl *builder) pset(name string) (*pset.PSet, error) {
	return memo(bl, bl.psets, name, func() (*pset.PSet, error) {
		d := bl.psetDecls[bl.where[name].idx]
		if err := bl.resolveDeps(d.Params); err != nil {
			return nil, err
		}
		ps, err := orEmpty(d.Params).Resolve(bl.lookupPSet)
		if err != nil {
			return nil, fmt.Errorf("pset %s: %w", name, err)
		}
		return ps, nil
	})
}

// resolveDeps builds the named sets ps refers to. Names that are not sets
// are left for Resolve to report.
func (bl *builder) resolveDeps(ps *pset.PSet) error {
	for _, ref := range ps.Refs() {
		if !bl.is(ref, declPSet) {
			continue
		}
		if _, err := bl.pset(ref); err != nil {
			return err
		}
	}
	return nil
}

func orEmpty(ps *pset.PSet) *pset.PSet {
	if ps == nil {
		return pset.MustNew()
	}
	return ps
}

func (bl *builder) buildModules() []error {
	var errs []error
	for _, d := range bl.moduleDecls {
		_, err := bl.module(d.Label)
		errs = collect(errs, err)
	}
	return errs
}

func (bl *builder) module(label string) (*module.Module, error) {
	return memo(bl, bl.modules, label, func() (*module.Module, error) {
		d := bl.moduleDecls[bl.where[label].idx]
		params, err := orEmpty(d.Params).Resolve(bl.lookupPSet)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", label, err)
		}

		var m *module.Module
		if d.CloneOf != "" {
			if !bl.is(d.CloneOf, declModule) {
				return nil, cfgerr.Unresolved(cfgerr.Join(label, "clone_of"), d.CloneOf)
			}
			base, err := bl.module(d.CloneOf)
			if err != nil {
				return nil, err
			}
			if m, err = base.Clone(label, params.Entries()...); err != nil {
				return nil, err
			}
		} else {
			kind, err := module.ParseKind(d.Kind)
			if err != nil {
				return nil, cfgerr.Malformed(label, "%v", err)
			}
			if m, err = module.New(label, kind, d.Type, params); err != nil {
				return nil, err
			}
		}

		if bl.opts.Registry != nil {
			if err := bl.opts.Registry.Check(m); err != nil {
				if bl.opts.Strict {
					return nil, err
				}
				bl.warnings = append(bl.warnings, err.Error())
			}
		}
		return m, nil
	})
}

func (bl *builder) buildSequences() []error {
	var errs []error
	for _, d := range bl.seqDecls {
		_, err := bl.sequence(d.Name)
		errs = collect(errs, err)
	}
	return errs
}

func (bl *builder) sequence(name string) (*sequence.Sequence, error) {
	return memo(bl, bl.seqs, name, func() (*sequence.Sequence, error) {
		d := bl.seqDecls[bl.where[name].idx]
		expr, err := sequence.Parse(d.Expr)
		if err != nil {
			return nil, fmt.Errorf("sequence %s: %w", name, err)
		}
		seq, err := sequence.Build(name, expr, func(ref *sequence.RefExpr) (sequence.Item, error) {
			switch {
			case bl.is(ref.Name, declModule):
				m := bl.modules[ref.Name]
				if ref.Invert && m.Kind() != module.KindFilter {
					return nil, cfgerr.Malformed(name, "~%s at position %d: only filters can be inverted, %s is a %s",
						ref.Name, ref.Pos, ref.Name, m.Kind())
				}
				return m, nil
			case bl.is(ref.Name, declSequence):
				if ref.Invert {
					return nil, cfgerr.Malformed(name, "~%s at position %d: only filters can be inverted, %s is a sequence",
						ref.Name, ref.Pos, ref.Name)
				}
				return bl.sequence(ref.Name)
			}
			return nil, cfgerr.Unresolved(name, ref.Name)
		})
		if err != nil {
			return nil, err
		}
		if labels := seq.Conflicts(); len(labels) > 0 {
			return nil, cfgerr.Malformed(name, "%s scheduled both plain and inverted", strings.Join(labels, ", "))
		}
		return seq, nil
	})
}

func (bl *builder) buildContents() []error {
	var errs []error
	for _, d := range bl.contentDecls {
		_, err := bl.content(d.Name)
		errs = collect(errs, err)
	}
	return errs
}

func (bl *builder) content(name string) (*eventcontent.Set, error) {
	return memo(bl, bl.contents, name, func() (*eventcontent.Set, error) {
		d := bl.contentDecls[bl.where[name].idx]
		set := eventcontent.MustNewSet()
		for _, ext := range d.Extends {
			if !bl.is(ext, declContent) {
				return nil, cfgerr.Unresolved(cfgerr.Join(name, "extends"), ext)
			}
			parent, err := bl.content(ext)
			if err != nil {
				return nil, err
			}
			set = set.Extend(parent)
		}
		own, err := eventcontent.NewSet(d.Commands...)
		if err != nil {
			return nil, fmt.Errorf("event_content %s: %w", name, err)
		}
		return set.Extend(own), nil
	})
}

func (bl *builder) process(b *config.Bundle) *Process {
	p := &Process{
		id:       uuid.NewString(),
		sources:  b.Sources(),
		psets:    bl.psets,
		byLabel:  bl.modules,
		seqs:     bl.seqs,
		contents: bl.contents,
		warnings: bl.warnings,
	}
	for _, d := range bl.psetDecls {
		p.psetNames = append(p.psetNames, d.Name)
	}
	for _, d := range bl.moduleDecls {
		p.modules = append(p.modules, bl.modules[d.Label])
	}
	for _, d := range bl.seqDecls {
		p.seqNames = append(p.seqNames, d.Name)
	}
	for _, d := range bl.contentDecls {
		p.contentNames = append(p.contentNames, d.Name)
	}
	return p
}
