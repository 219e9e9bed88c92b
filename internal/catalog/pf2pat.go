package catalog

import (
	"github.com/gyaneshwarpardhi/fwconfig/internal/eventcontent"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
)

// NoMuon removes isolated muons from the pile-up cleaned candidates.
var NoMuon = module.Producer("noMuon", "TPPFCandidatesOnPFCandidates",
	pset.P("verbose", pset.Untracked(pset.Bool(false))),
	pset.P("name", pset.Untracked(pset.String("noMuon"))),
	pset.P("topCollection", pset.Tag("isolatedMuons")),
	pset.P("bottomCollection", pset.Tag("noPileUp")),
)

// PF2PATExpr is the particle-flow to PAT chain. Apart from noMuon its
// members come from other fragments.
const PF2PATExpr = "genMetTrueSequence + pfMET + pfNoPileUpSequence + sortByTypeSequence + " +
	"pfElectronSequence + pfMuonSequence + noMuon + pfJetSequence + noJet + pfTauSequence + noTau"

var (
	PF2PATEventContent = eventcontent.MustNewSet(
		"keep *_genParticles_*_*",
		"keep *_genMetTrue_*_*",
		"keep recoGenJets_*_*_*",
		"keep *_isolatedElectrons_*_*",
		"keep *_isolatedMuons_*_*",
		"keep recoIsoDepositedmValueMap_*_*_*",
		"keep recoPFJets_noTau_*_*",
		"keep *_allLayer0Taus_*_*",
		"keep recoPFTauDiscriminator_*_*_*",
		"keep *_offlinePrimaryVerticesWithBS_*_*",
		"keep *_pfMET_*_*",
	)

	PF2PATStudiesEventContent = eventcontent.MustNewSet(
		"keep *",
		"keep recoPFJets_pfJets_*_*",
	)
)
