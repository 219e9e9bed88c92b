package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
)

func TestRegister_DuplicatePanics(t *testing.T) {
	r := New()
	r.Register(Plugin{Type: "MuonME0Digis", Kind: module.KindAnalyzer})
	assert.Panics(t, func() {
		r.Register(Plugin{Type: "MuonME0Digis", Kind: module.KindAnalyzer})
	})
	assert.Panics(t, func() {
		r.Register(Plugin{Type: "X", Kind: "source"})
	})
}

func TestLookup(t *testing.T) {
	r := Builtin()
	p, err := r.Lookup("MCTruthCompositeMatcherNew")
	require.NoError(t, err)
	assert.Equal(t, module.KindFilter, p.Kind)

	_, err = r.Lookup("PFJetProducer")
	assert.ErrorIs(t, err, cfgerr.ErrNotFound)
	assert.Contains(t, err.Error(), "PFJetProducer")
}

func TestCheck(t *testing.T) {
	r := Builtin()
	assert.NoError(t, r.Check(module.Producer("pfNoMuon", "TPPFCandidatesOnPFCandidates")))

	err := r.Check(module.Analyzer("pfNoMuon", "TPPFCandidatesOnPFCandidates"))
	assert.ErrorIs(t, err, cfgerr.ErrTypeMismatch)

	err = r.Check(module.Producer("pfJets", "PFJetProducer"))
	assert.ErrorIs(t, err, cfgerr.ErrUnresolvedReference)
}

func TestTypesSorted(t *testing.T) {
	r := New()
	r.Register(
		Plugin{Type: "b", Kind: module.KindFilter},
		Plugin{Type: "a", Kind: module.KindProducer},
	)
	assert.Equal(t, []string{"a", "b"}, r.Types())
	assert.Equal(t, []Plugin{{Type: "a", Kind: module.KindProducer}, {Type: "b", Kind: module.KindFilter}}, r.Plugins())
}

func TestRegister_NormalizesKindAliases(t *testing.T) {
	r := New()
	r.Register(Plugin{Type: "MCTruthCompositeMatcherNew", Kind: "EDFilter"})

	p, err := r.Lookup("MCTruthCompositeMatcherNew")
	require.NoError(t, err)
	assert.Equal(t, module.KindFilter, p.Kind)

	m, err := module.New("goodZToMuMuMCMatch", "EDFilter", "MCTruthCompositeMatcherNew", nil)
	require.NoError(t, err)
	assert.NoError(t, r.Check(m))
}
