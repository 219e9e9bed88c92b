package eventcontent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/eventcontent"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want eventcontent.Command
	}{
		{"keep *", eventcontent.Command{Action: eventcontent.Keep, Pattern: eventcontent.All}},
		{"drop *", eventcontent.Command{Action: eventcontent.Drop, Pattern: eventcontent.All}},
		{"keep recoPFJets_pfJets_*_*", eventcontent.Command{
			Action:  eventcontent.Keep,
			Pattern: eventcontent.Pattern{Type: "recoPFJets", Module: "pfJets", Instance: "*", Process: "*"},
		}},
		{"  drop  *_pfNoMuon?_*_PF2PAT ", eventcontent.Command{
			Action:  eventcontent.Drop,
			Pattern: eventcontent.Pattern{Type: "*", Module: "pfNoMuon?", Instance: "*", Process: "PF2PAT"},
		}},
	}
	for _, tc := range cases {
		got, err := eventcontent.ParseCommand(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseCommand_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"keep",
		"save *",
		"keep *_*_*",
		"keep *__*_*",
		"keep a_b_c_d_e",
		"keep [_*_*_*",
		"keep * extra",
	} {
		_, err := eventcontent.ParseCommand(in)
		assert.ErrorIs(t, err, cfgerr.ErrMalformed, "%q", in)
	}
}

func TestCommandString(t *testing.T) {
	for _, s := range []string{"keep *", "drop *_pfMuons_*_*"} {
		assert.Equal(t, s, eventcontent.MustParse(s).String())
	}
}

func TestSet_AppendIsIdempotent(t *testing.T) {
	s := eventcontent.MustNewSet("keep *")
	again := s.Append(eventcontent.MustParse("keep *"))
	assert.Equal(t, []string{"keep *"}, again.Strings())

	more := again.Append(eventcontent.MustParse("drop *_pfNoMuon_*_*"))
	assert.Equal(t, []string{"keep *", "drop *_pfNoMuon_*_*"}, more.Strings())
	assert.Equal(t, 1, s.Len(), "receiver must not change")
}

func TestSet_Extend(t *testing.T) {
	pf2pat := eventcontent.MustNewSet("keep *_pfJets_*_*", "keep *_pfMuons_*_*")
	studies := eventcontent.MustNewSet("keep *_pfJets_*_*", "keep *_pfNoMuon_*_*")

	got := pf2pat.Extend(studies)
	assert.Equal(t, []string{
		"keep *_pfJets_*_*",
		"keep *_pfMuons_*_*",
		"keep *_pfNoMuon_*_*",
	}, got.Strings())
}

func TestSet_LastMatchWins(t *testing.T) {
	s := eventcontent.MustNewSet(
		"drop *",
		"keep recoPFCandidates_*_*_*",
		"drop *_pfNoMuon_*_*",
	)
	cases := map[string]bool{
		"recoPFCandidates_particleFlow__RECO": true,
		"recoPFCandidates_pfNoMuon__PF2PAT":   false,
		"recoPFJets_pfJets__PF2PAT":           false,
	}
	for name, want := range cases {
		b, err := eventcontent.ParseBranch(name)
		require.NoError(t, err)
		assert.Equal(t, want, s.Keeps(b), name)
	}
}

func TestSet_NoMatchIsDropped(t *testing.T) {
	b, err := eventcontent.ParseBranch("recoMuons_muons__RECO")
	require.NoError(t, err)
	assert.False(t, (&eventcontent.Set{}).Keeps(b))
	assert.True(t, eventcontent.MustNewSet("keep *").Keeps(b))
}

func TestSet_Select(t *testing.T) {
	s := eventcontent.MustNewSet("keep *", "drop *_*_*_HLT")
	sel, err := s.Select([]string{"recoMuons_muons__RECO", "edmTriggerResults_TriggerResults__HLT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"recoMuons_muons__RECO"}, sel.Kept)
	assert.Equal(t, []string{"edmTriggerResults_TriggerResults__HLT"}, sel.Dropped)

	_, err = s.Select([]string{"notabranch"})
	assert.ErrorIs(t, err, cfgerr.ErrMalformed)
}

func TestNewSet_ReportsEveryBadCommand(t *testing.T) {
	_, err := eventcontent.NewSet("keep *", "hold *", "keep x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hold *")
	assert.Contains(t, err.Error(), "keep x")
}
