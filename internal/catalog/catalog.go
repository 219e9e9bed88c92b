// Package catalog holds configuration declared in Go: modules, sequences
// and event content that other fragments build on. Each group can be
// loaded as a fragment next to files on disk.
package catalog

import (
	"slices"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
	"github.com/gyaneshwarpardhi/fwconfig/internal/eventcontent"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

// SourcePrefix marks fragments that come from this package.
const SourcePrefix = "catalog:"

var groups = map[string]func() *config.Fragment{
	"zmumu-mcmatch": func() *config.Fragment {
		return fragment(GoodZToMuMuOneTrackMCMatch, GoodZToMuMuOneStandAloneMuonTrackMCMatch)
	},
	"pf2pat-topprojection": func() *config.Fragment {
		f := fragment(NoMuon)
		f.EventContent = []config.EventContentDecl{
			contentDecl("PF2PATEventContent", PF2PATEventContent),
			contentDecl("PF2PATStudiesEventContent", PF2PATStudiesEventContent),
		}
		return f
	},
	"pf2pat": func() *config.Fragment {
		f := fragment()
		f.Sequences = []config.SequenceDecl{{Name: "PF2PAT", Expr: PF2PATExpr}}
		return f
	},
	"outertracker-mctruth": func() *config.Fragment {
		return fragment(OuterTrackerMCTruth)
	},
	"outertracker-source": func() *config.Fragment {
		f := fragment(OuterTrackerMonitorCluster, OuterTrackerMonitorStub, OuterTrackerMonitorL1Track, OuterTrackerMonitorPixelDigiMaps)
		f.Sequences = []config.SequenceDecl{sequenceDecl(OuterTrackerSource)}
		return f
	},
	"outertracker-client-source": func() *config.Fragment {
		f := fragment(OuterTrackerMonitorCluster, OuterTrackerMonitorStub)
		f.Sequences = []config.SequenceDecl{sequenceDecl(OuterTrackerClientSource)}
		return f
	},
	"me0-digis": func() *config.Fragment {
		return fragment(me0DigisValidation(pset.Ref(SimTrackMatchingName)))
	},
}

// Names lists the fragment groups, sorted.
func Names() []string {
	out := make([]string, 0, len(groups))
	for name := range groups {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Fragment returns the named group as a fragment sourced "catalog:<name>".
func Fragment(name string) (*config.Fragment, error) {
	build, ok := groups[name]
	if !ok {
		return nil, cfgerr.New(cfgerr.ErrNotFound, name, "no catalog fragment %q (have %v)", name, Names())
	}
	f := build()
	f.Source = SourcePrefix + name
	return f, nil
}

// Fragments returns the named groups in the order given.
func Fragments(names ...string) ([]*config.Fragment, error) {
	out := make([]*config.Fragment, 0, len(names))
	for _, n := range names {
		f, err := Fragment(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func fragment(mods ...*module.Module) *config.Fragment {
	f := &config.Fragment{Version: config.SchemaVersion}
	for _, m := range mods {
		f.Modules = append(f.Modules, config.ModuleDecl{
			Label:  m.Label(),
			Kind:   string(m.Kind()),
			Type:   m.Type(),
			Params: m.Params(),
		})
	}
	return f
}

func sequenceDecl(s *sequence.Sequence) config.SequenceDecl {
	return config.SequenceDecl{Name: s.Name(), Expr: sequence.Format(s.Labels())}
}

func contentDecl(name string, s *eventcontent.Set) config.EventContentDecl {
	return config.EventContentDecl{Name: name, Commands: s.Strings()}
}
