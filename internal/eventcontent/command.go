// Package eventcontent parses keep/drop output commands and decides which
// products they persist.
package eventcontent

import (
	"fmt"
	"path"
	"strings"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
)

// Action is keep or drop.
type Action string

const (
	Keep Action = "keep"
	Drop Action = "drop"
)

// Pattern selects products by friendly type name, module label, product
// instance label and process name. Each field may use * and ? wildcards.
type Pattern struct {
	Type     string `json:"type"`
	Module   string `json:"module"`
	Instance string `json:"instance"`
	Process  string `json:"process"`
}

// All matches every product.
var All = Pattern{Type: "*", Module: "*", Instance: "*", Process: "*"}

func (p Pattern) String() string {
	if p == All {
		return "*"
	}
	return strings.Join([]string{p.Type, p.Module, p.Instance, p.Process}, "_")
}

// Command is one output command.
type Command struct {
	Action  Action  `json:"action"`
	Pattern Pattern `json:"pattern"`
}

func (c Command) String() string { return string(c.Action) + " " + c.Pattern.String() }

// ParseCommand parses "keep|drop <type>_<module>_<instance>_<process>" or
// "keep|drop *".
func ParseCommand(s string) (Command, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Command{}, cfgerr.Malformed("", "output command %q: want \"keep|drop <pattern>\"", s)
	}
	act := Action(fields[0])
	if act != Keep && act != Drop {
		return Command{}, cfgerr.Malformed("", "output command %q: unknown action %q", s, fields[0])
	}
	pat, err := parsePattern(fields[1])
	if err != nil {
		return Command{}, cfgerr.Malformed("", "output command %q: %v", s, err)
	}
	return Command{Action: act, Pattern: pat}, nil
}

// MustParse is ParseCommand for literals.
func MustParse(s string) Command {
	c, err := ParseCommand(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parsePattern(s string) (Pattern, error) {
	if s == "*" {
		return All, nil
	}
	parts := strings.Split(s, "_")
	if len(parts) != 4 {
		return Pattern{}, fmt.Errorf("pattern %q needs four '_' separated fields", s)
	}
	for _, p := range parts {
		if p == "" {
			return Pattern{}, fmt.Errorf("pattern %q has an empty field; use *", s)
		}
		if _, err := path.Match(p, ""); err != nil {
			return Pattern{}, fmt.Errorf("pattern %q: %w", s, err)
		}
	}
	return Pattern{Type: parts[0], Module: parts[1], Instance: parts[2], Process: parts[3]}, nil
}

// Branch identifies a stored product.
type Branch struct {
	Type     string `json:"type"`
	Module   string `json:"module"`
	Instance string `json:"instance"`
	Process  string `json:"process"`
}

// ParseBranch parses "type_module_instance_process"; the instance may be
// empty ("recoPFJets_pfJets__RECO").
func ParseBranch(s string) (Branch, error) {
	parts := strings.Split(strings.TrimSuffix(s, "."), "_")
	if len(parts) != 4 || parts[0] == "" || parts[1] == "" || parts[3] == "" {
		return Branch{}, cfgerr.Malformed("", "branch %q: want type_module_instance_process", s)
	}
	return Branch{Type: parts[0], Module: parts[1], Instance: parts[2], Process: parts[3]}, nil
}

func (b Branch) String() string {
	return strings.Join([]string{b.Type, b.Module, b.Instance, b.Process}, "_")
}

// Matches reports whether every field of b matches the pattern.
func (p Pattern) Matches(b Branch) bool {
	return match(p.Type, b.Type) && match(p.Module, b.Module) &&
		match(p.Instance, b.Instance) && match(p.Process, b.Process)
}

func match(pattern, value string) bool {
	ok, _ := path.Match(pattern, value)
	return ok
}
