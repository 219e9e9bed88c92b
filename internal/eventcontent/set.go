package eventcontent

import (
	"errors"
	"slices"
)

// Set is an immutable ordered list of output commands.
type Set struct {
	commands []Command
}

// NewSet parses cmds in order. Every malformed command is reported.
func NewSet(cmds ...string) (*Set, error) {
	parsed := make([]Command, 0, len(cmds))
	var errs []error
	for _, s := range cmds {
		c, err := ParseCommand(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parsed = append(parsed, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return (&Set{}).Append(parsed...), nil
}

// MustNewSet is NewSet for literals.
func MustNewSet(cmds ...string) *Set {
	s, err := NewSet(cmds...)
	if err != nil {
		panic(err)
	}
	return s
}

// Append returns a new set with cmds added at the end. A command already in
// the set is not added again.
func (s *Set) Append(cmds ...Command) *Set {
	out := &Set{commands: slices.Clone(s.Commands())}
	for _, c := range cmds {
		if !slices.Contains(out.commands, c) {
			out.commands = append(out.commands, c)
		}
	}
	return out
}

// Extend returns s followed by the commands of other.
func (s *Set) Extend(other *Set) *Set {
	return s.Append(other.Commands()...)
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.commands)
}

// Commands returns a copy of the commands in order.
func (s *Set) Commands() []Command {
	if s == nil {
		return nil
	}
	return slices.Clone(s.commands)
}

// Strings renders the commands in order.
func (s *Set) Strings() []string {
	out := make([]string, 0, s.Len())
	for _, c := range s.Commands() {
		out = append(out, c.String())
	}
	return out
}

// Keeps reports whether b is persisted: the last matching command decides
// and a product no command matches is dropped.
func (s *Set) Keeps(b Branch) bool {
	keep := false
	for _, c := range s.Commands() {
		if c.Pattern.Matches(b) {
			keep = c.Action == Keep
		}
	}
	return keep
}

// Selection partitions branch names by Keeps.
type Selection struct {
	Kept    []string `json:"kept"`
	Dropped []string `json:"dropped"`
}

// Select applies s to branch names, keeping their order.
func (s *Set) Select(branches []string) (Selection, error) {
	sel := Selection{Kept: []string{}, Dropped: []string{}}
	var errs []error
	for _, name := range branches {
		b, err := ParseBranch(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if s.Keeps(b) {
			sel.Kept = append(sel.Kept, name)
		} else {
			sel.Dropped = append(sel.Dropped, name)
		}
	}
	if len(errs) > 0 {
		return Selection{}, errors.Join(errs...)
	}
	return sel, nil
}

// MarshalYAML writes the commands as strings.
func (s *Set) MarshalYAML() (interface{}, error) { return s.Strings(), nil }
