package catalog

import (
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
)

// SimTrackMatchingName is the set me0DigisValidation expects to be declared
// by another fragment.
const SimTrackMatchingName = "SimTrackMatching"

func me0DigisValidation(simTrackMatching pset.Value) *module.Module {
	return module.Analyzer("me0DigisValidation", "MuonME0Digis",
		pset.P("debug", pset.Untracked(pset.Bool(true))),
		pset.P("folderPath", pset.Untracked(pset.String("MuonME0DigisV/ME0DigiTask"))),
		pset.P("EffSaveRootFile", pset.Untracked(pset.Bool(false))),
		pset.P("EffRootFileName", pset.Untracked(pset.String("ME0Digis_ME.root"))),
		pset.P("simTrackMatching", simTrackMatching),
	)
}

// MuonME0Digis returns the ME0 digi validation analyzer configured with the
// caller's track matching parameters.
func MuonME0Digis(simTrackMatching *pset.PSet) *module.Module {
	return me0DigisValidation(pset.Nested(simTrackMatching))
}
