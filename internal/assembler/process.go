package assembler

import (
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
	"github.com/gyaneshwarpardhi/fwconfig/internal/eventcontent"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

// Process is an assembled configuration. It never changes; reloading
// builds a new one.
type Process struct {
	id       string
	sources  []string
	warnings []string

	psetNames []string
	psets     map[string]*pset.PSet

	modules []*module.Module
	byLabel map[string]*module.Module

	seqNames []string
	seqs     map[string]*sequence.Sequence

	contentNames []string
	contents     map[string]*eventcontent.Set
}

// ID identifies this assembly run.
func (p *Process) ID() string { return p.id }

// Sources lists the fragments the process was built from, in load order.
func (p *Process) Sources() []string { return slices.Clone(p.sources) }

// Warnings lists module types the registry did not accept outside strict mode.
func (p *Process) Warnings() []string { return slices.Clone(p.warnings) }

// Modules returns every module in declaration order.
func (p *Process) Modules() []*module.Module { return slices.Clone(p.modules) }

func (p *Process) Module(label string) (*module.Module, bool) {
	m, ok := p.byLabel[label]
	return m, ok
}

func (p *Process) PSetNames() []string { return slices.Clone(p.psetNames) }

// PSet returns a named parameter set with its references resolved.
func (p *Process) PSet(name string) (*pset.PSet, bool) {
	ps, ok := p.psets[name]
	return ps, ok
}

func (p *Process) SequenceNames() []string { return slices.Clone(p.seqNames) }

func (p *Process) Sequence(name string) (*sequence.Sequence, bool) {
	s, ok := p.seqs[name]
	return s, ok
}

func (p *Process) EventContentNames() []string { return slices.Clone(p.contentNames) }

func (p *Process) EventContent(name string) (*eventcontent.Set, bool) {
	s, ok := p.contents[name]
	return s, ok
}

// Fragment renders the process as a single self-contained fragment: sets
// resolved, clones expanded, sequences flattened and event content merged.
// Loading it again yields an equivalent process.
func (p *Process) Fragment() *config.Fragment {
	f := &config.Fragment{Version: config.SchemaVersion}
	for _, name := range p.psetNames {
		f.PSets = append(f.PSets, config.NamedPSet{Name: name, Params: p.psets[name]})
	}
	for _, m := range p.modules {
		f.Modules = append(f.Modules, config.ModuleDecl{
			Label:  m.Label(),
			Kind:   string(m.Kind()),
			Type:   m.Type(),
			Params: m.Params(),
		})
	}
	for _, name := range p.seqNames {
		f.Sequences = append(f.Sequences, config.SequenceDecl{Name: name, Expr: FormatSteps(p.seqs[name].Steps())})
	}
	for _, name := range p.contentNames {
		f.EventContent = append(f.EventContent, config.EventContentDecl{Name: name, Commands: p.contents[name].Strings()})
	}
	return f
}

// FormatSteps renders flattened steps as a sequence expression.
func FormatSteps(steps []sequence.Step) string {
	out := make([]string, len(steps))
	for i, st := range steps {
		out[i] = st.String()
	}
	return sequence.Format(out)
}

// MarshalYAML dumps the process as a fragment headed by its ID.
func (p *Process) MarshalYAML() (interface{}, error) {
	var n yaml.Node
	if err := n.Encode(p.Fragment()); err != nil {
		return nil, err
	}
	n.HeadComment = "process " + p.id
	return &n, nil
}
