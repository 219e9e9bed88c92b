package catalog

import (
	"github.com/gyaneshwarpardhi/fwconfig/internal/histo"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

// h1 and h2 keep the parameter order the descriptors were written in
// (maximum before minimum); histo.FromPSet does not depend on it.
func h1(nbins int32, xmax, xmin float64) pset.Value {
	return pset.Nested(pset.MustNew(
		pset.P(histo.NbinsX, pset.Int32(nbins)),
		pset.P(histo.XMax, pset.Double(xmax)),
		pset.P(histo.XMin, pset.Double(xmin)),
	))
}

func h2(nbinsx int32, xmax, xmin float64, nbinsy int32, ymax, ymin float64) pset.Value {
	return pset.Nested(pset.MustNew(
		pset.P(histo.NbinsX, pset.Int32(nbinsx)),
		pset.P(histo.XMax, pset.Double(xmax)),
		pset.P(histo.XMin, pset.Double(xmin)),
		pset.P(histo.NbinsY, pset.Int32(nbinsy)),
		pset.P(histo.YMax, pset.Double(ymax)),
		pset.P(histo.YMin, pset.Double(ymin)),
	))
}

// OuterTrackerMCTruth validates clusters, stubs and tracks against tracking
// particles.
var OuterTrackerMCTruth = module.Analyzer("OuterTrackerMCTruth", "OuterTrackerMCTruth",
	pset.P("TopFolderName", pset.String("Phase2OuterTrackerV")),
	pset.P("TTClusters", pset.Tag("TTClustersFromPixelDigis", "ClusterInclusive")),
	pset.P("TTClusterMCTruth", pset.Tag("TTClusterAssociatorFromPixelDigis", "ClusterInclusive")),
	pset.P("TTStubs", pset.Tag("TTStubsFromPixelDigis", "StubAccepted")),
	pset.P("TTStubMCTruth", pset.Tag("TTStubAssociatorFromPixelDigis", "StubAccepted")),
	pset.P("TTTracks", pset.Tag("TTTracksFromPixelDigis", "Level1TTTracks")),
	pset.P("TTTrackMCTruth", pset.Tag("TTTrackAssociatorFromPixelDigis", "Level1TTTracks")),

	pset.P("TH1TPart_Pt", h1(50, 200.0, 0.0)),
	pset.P("TH1TPart_Angle_Pt10", h1(45, 3.1416, -3.1416)),
	pset.P("TH2SimVtx_XY", h2(30, 0.01, -0.006, 30, 0.01, -0.006)),
	pset.P("TH2SimVtx_RZ", h2(30, 20.0, -20.0, 30, 0.006, 0.0)),
	pset.P("TH1TPart_Eta_CW", h1(45, 3.0, -3.0)),
	pset.P("TH1TPart_Eta_PS2S", h1(45, 3.1416, -3.1416)),
	pset.P("TH2Cluster_PID", h2(501, 250.5, -250.5, 2, 1.5, -0.5)),
	pset.P("TH1Stub_PID", h1(501, 250.5, -250.5)),
	// Inverse pT axes run from 1 down to 0.
	pset.P("TH2Stub_InvPt", h2(200, 0.0, 1.0, 200, 0.0, 1.0)),
	pset.P("TH2Stub_Pt", h2(100, 50.0, 0.0, 100, 50.0, 0.0)),
	pset.P("TH2Stub_Eta", h2(180, 3.1416, -3.1416, 180, 3.1416, -3.1416)),
	pset.P("TH2Stub_Phi", h2(180, 3.1416, -3.1416, 180, 3.1416, -3.1416)),
	pset.P("TH2Stub_InvPtRes", h2(180, 3.1416, -3.1416, 100, 2.0, -2.0)),
	pset.P("TH2Stub_PtRes", h2(180, 3.1416, -3.1416, 100, 40.0, -40.0)),
	pset.P("TH2Stub_EtaRes", h2(180, 3.1416, -3.1416, 100, 2.0, -2.0)),
	pset.P("TH2Stub_PhiRes", h2(180, 3.1416, -3.1416, 100, 0.5, -0.5)),
	pset.P("TH2Stub_W_InvPt", h2(200, 0.8, 0.0, 29, 7.25, -7.25)),
	pset.P("TH2Stub_W_Pt", h2(100, 50.0, 0.0, 29, 7.25, -7.25)),
)

const phase2Folder = "Phase2OuterTracker"

// Outer tracker DQM source monitors.
var (
	OuterTrackerMonitorCluster = module.Analyzer("OuterTrackerMonitorCluster", "OuterTrackerMonitorCluster",
		pset.P("TopFolderName", pset.String(phase2Folder)),
		pset.P("TTClusters", pset.Tag("TTClustersFromPixelDigis", "ClusterInclusive")),
	)
	OuterTrackerMonitorStub = module.Analyzer("OuterTrackerMonitorStub", "OuterTrackerMonitorStub",
		pset.P("TopFolderName", pset.String(phase2Folder)),
		pset.P("TTStubs", pset.Tag("TTStubsFromPixelDigis", "StubAccepted")),
	)
	OuterTrackerMonitorL1Track = module.Analyzer("OuterTrackerMonitorL1Track", "OuterTrackerMonitorL1Track",
		pset.P("TopFolderName", pset.String(phase2Folder)),
		pset.P("TTTracks", pset.Tag("TTTracksFromPixelDigis", "Level1TTTracks")),
	)
	OuterTrackerMonitorPixelDigiMaps = module.Analyzer("OuterTrackerMonitorPixelDigiMaps", "OuterTrackerMonitorPixelDigiMaps",
		pset.P("TopFolderName", pset.String(phase2Folder)),
	)
)

// OuterTrackerSource runs the Phase-2 monitors; OuterTrackerClientSource is
// the older cluster and stub only variant. Both are named OuterTrackerSource
// and cannot be loaded together.
var (
	OuterTrackerSource = sequence.New("OuterTrackerSource",
		OuterTrackerMonitorCluster,
		OuterTrackerMonitorStub,
		OuterTrackerMonitorL1Track,
		OuterTrackerMonitorPixelDigiMaps,
	)
	OuterTrackerClientSource = sequence.New("OuterTrackerSource",
		OuterTrackerMonitorCluster,
		OuterTrackerMonitorStub,
	)
)
