package config

import "github.com/gyaneshwarpardhi/fwconfig/internal/pset"

// SchemaVersion is the only fragment version understood.
const SchemaVersion = "v1"

// Bundle is every fragment contributing to one process, in load order.
type Bundle struct {
	Fragments []*Fragment
}

// Sources lists the fragment sources in order.
func (b *Bundle) Sources() []string {
	out := make([]string, 0, len(b.Fragments))
	for _, f := range b.Fragments {
		out = append(out, f.Source)
	}
	return out
}

// Fragment is the top-level structure of one fragment file.
type Fragment struct {
	Version      string             `yaml:"version"`
	Source       string             `yaml:"-"`
	PSets        []NamedPSet        `yaml:"psets"`
	Modules      []ModuleDecl       `yaml:"modules"`
	Sequences    []SequenceDecl     `yaml:"sequences"`
	EventContent []EventContentDecl `yaml:"event_content"`
}

// NamedPSet is a top-level parameter bundle other declarations may ref.
type NamedPSet struct {
	Name   string     `yaml:"name"`
	Params *pset.PSet `yaml:"params"`
}

// ModuleDecl declares a module. With CloneOf set, Kind and Type may be left
// empty and Params holds overrides of the original's parameters.
type ModuleDecl struct {
	Label   string     `yaml:"label"`
	Kind    string     `yaml:"kind"`
	Type    string     `yaml:"type"`
	CloneOf string     `yaml:"clone_of,omitempty"`
	Params  *pset.PSet `yaml:"params"`
}

// SequenceDecl names a sequence expression such as "pfNoMuon + pfJets".
type SequenceDecl struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// EventContentDecl is a named list of output commands. Commands of the
// extended sets come first, in the order listed.
type EventContentDecl struct {
	Name     string   `yaml:"name"`
	Extends  []string `yaml:"extends,omitempty"`
	Commands []string `yaml:"commands"`
}
