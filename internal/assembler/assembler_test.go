package assembler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/fwconfig/internal/assembler"
	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/registry"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

func fragment(t *testing.T, source, src string) *config.Fragment {
	t.Helper()
	f, err := config.DecodeYAML([]byte(strings.TrimSpace(src)))
	require.NoError(t, err)
	f.Source = source
	return f
}

func bundle(fs ...*config.Fragment) *config.Bundle { return &config.Bundle{Fragments: fs} }

const pf2pat = `
version: v1
psets:
  - name: SimTrackMatching
    params:
      simTrackMinPt: !double 2
      cuts: !ref Cuts
  - name: Cuts
    params:
      minEta: !double -2.4
modules:
  - label: pfNoMuon
    kind: producer
    type: TPPFCandidatesOnPFCandidates
    params:
      enable: true
      topCollection: !InputTag pfIsolatedMuons
      bottomCollection: !InputTag pfNoPileUp
  - label: pfNoMuonClone
    clone_of: pfNoMuon
    params:
      enable: false
      name: !untracked.string clone
  - label: goodMuonMCMatch
    kind: filter
    type: MCTruthCompositeMatcherNew
    params:
      matching: !ref SimTrackMatching
sequences:
  - name: inner
    expr: pfNoMuon + pfNoMuonClone
  - name: PF2PAT
    expr: (inner + ~goodMuonMCMatch) * pfNoMuon
event_content:
  - name: PF2PATEventContent
    commands: ["keep *_pfNoMuon_*_*"]
  - name: PF2PATStudiesEventContent
    extends: [PF2PATEventContent]
    commands: ["keep *_pfNoMuon_*_*", "drop *_*_*_HLT"]
`

func TestBuild(t *testing.T) {
	p, err := assembler.Build(bundle(fragment(t, "pf2pat.yaml", pf2pat)), assembler.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID())
	assert.Equal(t, []string{"pf2pat.yaml"}, p.Sources())

	var labels []string
	for _, m := range p.Modules() {
		labels = append(labels, m.Label())
	}
	assert.Equal(t, []string{"pfNoMuon", "pfNoMuonClone", "goodMuonMCMatch"}, labels)

	clone, ok := p.Module("pfNoMuonClone")
	require.True(t, ok)
	assert.Equal(t, module.KindProducer, clone.Kind())
	assert.Equal(t, "TPPFCandidatesOnPFCandidates", clone.Type())
	assert.Equal(t, []string{"enable", "topCollection", "bottomCollection", "name"}, clone.Params().Names())
	enable, err := clone.Params().Bool("enable")
	require.NoError(t, err)
	assert.False(t, enable)

	orig, _ := p.Module("pfNoMuon")
	enable, _ = orig.Params().Bool("enable")
	assert.True(t, enable, "cloning must not change the original")

	matcher, _ := p.Module("goodMuonMCMatch")
	matching, err := matcher.Params().PSet("matching")
	require.NoError(t, err)
	cuts, err := matching.PSet("cuts")
	require.NoError(t, err)
	eta, err := cuts.Double("minEta")
	require.NoError(t, err)
	assert.Equal(t, -2.4, eta)

	seq, ok := p.Sequence("PF2PAT")
	require.True(t, ok)
	assert.Equal(t, []sequence.Step{
		{Label: "pfNoMuon"},
		{Label: "pfNoMuonClone"},
		{Label: "goodMuonMCMatch", Inverted: true},
	}, seq.Steps())

	ec, ok := p.EventContent("PF2PATStudiesEventContent")
	require.True(t, ok)
	assert.Equal(t, []string{"keep *_pfNoMuon_*_*", "drop *_*_*_HLT"}, ec.Strings())

	assert.Equal(t, []string{"SimTrackMatching", "Cuts"}, p.PSetNames())
	assert.Equal(t, []string{"inner", "PF2PAT"}, p.SequenceNames())
	assert.Equal(t, []string{"PF2PATEventContent", "PF2PATStudiesEventContent"}, p.EventContentNames())
}

func TestBuild_SequenceOrder(t *testing.T) {
	f := fragment(t, "ab.yaml", `
version: v1
modules:
  - {label: A, kind: producer, type: X}
  - {label: B, kind: producer, type: X}
sequences:
  - {name: s, expr: A + B}
`)
	p, err := assembler.Build(bundle(f), assembler.Options{})
	require.NoError(t, err)
	s, _ := p.Sequence("s")
	assert.Equal(t, []string{"A", "B"}, s.Labels())
}

func TestBuild_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind error
		msg  []string
	}{
		{
			name: "unresolved pset ref",
			src: `
modules:
  - label: me0DigisValidation
    kind: analyzer
    type: MuonME0Digis
    params:
      simTrackMatching: !ref SimTrackMatching`,
			kind: cfgerr.ErrUnresolvedReference,
			msg:  []string{"me0DigisValidation", "simTrackMatching", "SimTrackMatching"},
		},
		{
			name: "unresolved sequence member",
			src: `
modules: [{label: A, kind: producer, type: X}]
sequences: [{name: s, expr: A + pfJets}]`,
			kind: cfgerr.ErrUnresolvedReference,
			msg:  []string{"pfJets"},
		},
		{
			name: "unresolved clone_of",
			src:  `modules: [{label: B, clone_of: A}]`,
			kind: cfgerr.ErrUnresolvedReference,
			msg:  []string{"B.clone_of"},
		},
		{
			name: "unresolved extends",
			src:  `event_content: [{name: e, extends: [base], commands: ["keep *"]}]`,
			kind: cfgerr.ErrUnresolvedReference,
			msg:  []string{"e.extends", "base"},
		},
		{
			name: "clone override changes kind",
			src: `
modules:
  - {label: A, kind: producer, type: X, params: {enable: true}}
  - {label: B, clone_of: A, params: {enable: !int32 1}}`,
			kind: cfgerr.ErrTypeMismatch,
			msg:  []string{"clone B of A", "enable"},
		},
		{
			name: "pset cycle",
			src: `
psets:
  - {name: a, params: {x: !ref b}}
  - {name: b, params: {y: !ref a}}`,
			kind: cfgerr.ErrCyclicReference,
			msg:  []string{"a -> b -> a"},
		},
		{
			name: "clone cycle",
			src: `
modules:
  - {label: A, clone_of: B}
  - {label: B, clone_of: A}`,
			kind: cfgerr.ErrCyclicReference,
		},
		{
			name: "sequence cycle",
			src: `
modules: [{label: A, kind: producer, type: X}]
sequences:
  - {name: s1, expr: A + s2}
  - {name: s2, expr: s1}`,
			kind: cfgerr.ErrCyclicReference,
			msg:  []string{"s1 -> s2 -> s1"},
		},
		{
			name: "extends cycle",
			src: `
event_content:
  - {name: e1, extends: [e2], commands: ["keep *"]}
  - {name: e2, extends: [e1], commands: ["drop *"]}`,
			kind: cfgerr.ErrCyclicReference,
		},
		{
			name: "filter both plain and inverted",
			src: `
modules: [{label: f, kind: filter, type: X}, {label: A, kind: producer, type: X}]
sequences:
  - {name: inner, expr: ~f}
  - {name: s, expr: f + A + inner}`,
			kind: cfgerr.ErrMalformed,
			msg:  []string{"s", "f scheduled both plain and inverted"},
		},
		{
			name: "inverted producer",
			src: `
modules: [{label: A, kind: producer, type: X}]
sequences: [{name: s, expr: ~A}]`,
			kind: cfgerr.ErrMalformed,
			msg:  []string{"only filters can be inverted"},
		},
		{
			name: "inverted sequence",
			src: `
modules: [{label: A, kind: filter, type: X}]
sequences:
  - {name: s1, expr: A}
  - {name: s2, expr: ~s1}`,
			kind: cfgerr.ErrMalformed,
		},
		{
			name: "name shared across kinds",
			src: `
psets: [{name: A, params: {x: 1}}]
modules: [{label: A, kind: producer, type: X}]`,
			kind: cfgerr.ErrDuplicateName,
			msg:  []string{"pset", "module"},
		},
		{
			name: "bad module kind",
			src:  `modules: [{label: A, kind: source, type: X}]`,
			kind: cfgerr.ErrMalformed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := fragment(t, "case.yaml", "version: v1\n"+strings.TrimSpace(tc.src))
			p, err := assembler.Build(bundle(f), assembler.Options{})
			require.Error(t, err)
			assert.Nil(t, p, "no partial process on failure")
			assert.ErrorIs(t, err, tc.kind)
			for _, m := range tc.msg {
				assert.Contains(t, err.Error(), m)
			}
		})
	}
}

func TestBuild_DuplicateReportsBothSources(t *testing.T) {
	a := fragment(t, "a.yaml", "version: v1\nmodules: [{label: pfNoMuon, kind: producer, type: X}]")
	b := fragment(t, "b.hcl", "version: v1\nsequences: [{name: pfNoMuon, expr: x}]")
	_, err := assembler.Build(bundle(a, b), assembler.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cfgerr.ErrDuplicateName)
	assert.Contains(t, err.Error(), "a.yaml")
	assert.Contains(t, err.Error(), "b.hcl")
}

func TestBuild_ReportsEveryErrorOfAPhase(t *testing.T) {
	f := fragment(t, "many.yaml", `
version: v1
modules:
  - {label: A, kind: producer, type: X, params: {p: !ref Missing1}}
  - {label: B, kind: producer, type: X, params: {p: !ref Missing2}}
  - {label: C, clone_of: A}
`)
	_, err := assembler.Build(bundle(f), assembler.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing1")
	assert.Contains(t, err.Error(), "Missing2")
	assert.Equal(t, 1, strings.Count(err.Error(), "Missing1"), "a failed clone source is reported once")
}

func TestBuild_Registry(t *testing.T) {
	f := fragment(t, "reg.yaml", `
version: v1
modules:
  - {label: pfJets, kind: producer, type: PFJetProducer}
  - {label: pfNoMuon, kind: producer, type: TPPFCandidatesOnPFCandidates}
`)
	reg := registry.Builtin()

	_, err := assembler.Build(bundle(f), assembler.Options{Registry: reg, Strict: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, cfgerr.ErrUnresolvedReference)
	assert.Contains(t, err.Error(), "PFJetProducer")

	p, err := assembler.Build(bundle(f), assembler.Options{Registry: reg})
	require.NoError(t, err)
	require.Len(t, p.Warnings(), 1)
	assert.Contains(t, p.Warnings()[0], "PFJetProducer")

	bad := fragment(t, "kind.yaml", "version: v1\nmodules: [{label: m, kind: filter, type: TPPFCandidatesOnPFCandidates}]")
	_, err = assembler.Build(bundle(bad), assembler.Options{Registry: reg, Strict: true})
	assert.ErrorIs(t, err, cfgerr.ErrTypeMismatch)
}

func TestProcess_DumpReloads(t *testing.T) {
	p, err := assembler.Build(bundle(fragment(t, "pf2pat.yaml", pf2pat)), assembler.Options{})
	require.NoError(t, err)

	data, err := yaml.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# process "+p.ID())

	f, err := config.DecodeYAML(data)
	require.NoError(t, err, string(data))
	require.NoError(t, config.Validate(bundle(f)))
	again, err := assembler.Build(bundle(f), assembler.Options{})
	require.NoError(t, err, string(data))

	assert.NotEqual(t, p.ID(), again.ID())
	require.Len(t, again.Modules(), len(p.Modules()))
	for i, m := range p.Modules() {
		got := again.Modules()[i]
		assert.Equal(t, m.String(), got.String())
		assert.True(t, m.Params().Equal(got.Params()), "module %s", m.Label())
	}
	for _, name := range p.SequenceNames() {
		want, _ := p.Sequence(name)
		got, _ := again.Sequence(name)
		assert.Equal(t, want.Steps(), got.Steps(), name)
	}
	for _, name := range p.EventContentNames() {
		want, _ := p.EventContent(name)
		got, _ := again.EventContent(name)
		assert.Equal(t, want.Strings(), got.Strings(), name)
	}
}
