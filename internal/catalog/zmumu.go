package catalog

import (
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
)

// MC-truth matching filters for Z→μμ candidates with one muon replaced by a
// track or a standalone muon track.
var (
	GoodZToMuMuOneTrackMCMatch = module.Filter("goodZToMuMuOneTrackMCMatch", "MCTruthCompositeMatcherNew",
		pset.P("src", pset.Tag("goodZToMuMuOneTrack")),
		pset.P("matchPDGId", pset.VInt32()),
		pset.P("matchMaps", pset.VTag(
			pset.NewInputTag("goodMuonMCMatch"),
			pset.NewInputTag("goodTrackMCMatch"),
		)),
	)

	GoodZToMuMuOneStandAloneMuonTrackMCMatch = module.Filter("goodZToMuMuOneStandAloneMuonTrackMCMatch", "MCTruthCompositeMatcherNew",
		pset.P("src", pset.Tag("goodZToMuMuOneStandAloneMuonTrack")),
		pset.P("matchPDGId", pset.VInt32()),
		pset.P("matchMaps", pset.VTag(
			pset.NewInputTag("goodMuonMCMatch"),
			pset.NewInputTag("goodStandAloneMuonTrackMCMatch"),
		)),
	)
)
