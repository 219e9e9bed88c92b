package config

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/eventcontent"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

// Validate checks each fragment for:
//   - a supported version
//   - required names, labels, types and expressions
//   - module kinds, sequence expressions and output commands that parse
//
// Cross-fragment concerns (duplicates, references, cycles) are left to the
// assembler, which knows every declaration.
func Validate(b *Bundle) error {
	var errs []string
	for i, f := range b.Fragments {
		loc := f.Source
		if loc == "" {
			loc = fmt.Sprintf("fragments[%d]", i)
		}
		validateFragment(f, loc, &errs)
	}
	if len(errs) > 0 {
		return cfgerr.Malformed("", "config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateFragment(f *Fragment, loc string, errs *[]string) {
	add := func(format string, args ...any) {
		*errs = append(*errs, loc+": "+fmt.Sprintf(format, args...))
	}
	if f.Version != SchemaVersion {
		add("version must be %q, got %q", SchemaVersion, f.Version)
	}
	for j, ps := range f.PSets {
		if ps.Name == "" {
			add("psets[%d]: name is required", j)
		}
	}
	for j, m := range f.Modules {
		if m.Label == "" {
			add("modules[%d]: label is required", j)
			continue
		}
		if m.CloneOf != "" {
			if m.Kind != "" || m.Type != "" {
				add("module %s: kind and type come from clone_of %s", m.Label, m.CloneOf)
			}
			continue
		}
		if _, err := module.ParseKind(m.Kind); err != nil {
			add("module %s: %v", m.Label, err)
		}
		if m.Type == "" {
			add("module %s: type is required", m.Label)
		}
	}
	for j, s := range f.Sequences {
		if s.Name == "" {
			add("sequences[%d]: name is required", j)
			continue
		}
		if strings.TrimSpace(s.Expr) == "" {
			add("sequence %s: expr is required", s.Name)
			continue
		}
		if _, err := sequence.Parse(s.Expr); err != nil {
			add("sequence %s: %v", s.Name, err)
		}
	}
	for j, ec := range f.EventContent {
		if ec.Name == "" {
			add("event_content[%d]: name is required", j)
			continue
		}
		if len(ec.Commands) == 0 && len(ec.Extends) == 0 {
			add("event_content %s: commands or extends is required", ec.Name)
		}
		for _, c := range ec.Commands {
			if _, err := eventcontent.ParseCommand(c); err != nil {
				add("event_content %s: %v", ec.Name, err)
			}
		}
	}
}
