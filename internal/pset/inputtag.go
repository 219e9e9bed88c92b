package pset

import (
	"strings"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
)

// InputTag references a data product by the label of the module that
// produced it, the product instance label and the process name.
type InputTag struct {
	Label    string `json:"label" yaml:"label"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Process  string `json:"process,omitempty" yaml:"process,omitempty"`
}

// NewInputTag builds an InputTag; the optional parts are instance and process.
func NewInputTag(label string, instanceAndProcess ...string) InputTag {
	t := InputTag{Label: label}
	if len(instanceAndProcess) > 0 {
		t.Instance = instanceAndProcess[0]
	}
	if len(instanceAndProcess) > 1 {
		t.Process = instanceAndProcess[1]
	}
	return t
}

// ParseInputTag parses "label[:instance[:process]]". The empty string is the
// empty tag.
func ParseInputTag(s string) (InputTag, error) {
	if s == "" {
		return InputTag{}, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return InputTag{}, cfgerr.Malformed("", "input tag %q has more than three parts", s)
	}
	if parts[0] == "" {
		return InputTag{}, cfgerr.Malformed("", "input tag %q has an empty module label", s)
	}
	return NewInputTag(parts[0], parts[1:]...), nil
}

// Valid reports whether ParseInputTag reads t.String() back as t: the empty
// tag, or a tag with a module label and no ':' inside any part.
func (t InputTag) Valid() bool {
	if t.IsZero() {
		return true
	}
	return t.Label != "" && !strings.ContainsRune(t.Label+t.Instance+t.Process, ':')
}

// IsZero reports whether t is the empty tag.
func (t InputTag) IsZero() bool { return t == InputTag{} }

// String encodes t, omitting trailing empty parts.
func (t InputTag) String() string {
	switch {
	case t.Process != "":
		return t.Label + ":" + t.Instance + ":" + t.Process
	case t.Instance != "":
		return t.Label + ":" + t.Instance
	}
	return t.Label
}
