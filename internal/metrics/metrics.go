package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssembliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fwconfig_assemblies_total",
		Help: "Total number of process assemblies, labelled by result.",
	}, []string{"result"})

	AssemblyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fwconfig_assembly_duration_ms",
		Help:    "Time to validate and assemble all fragments in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	ProcessDeclarations = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fwconfig_process_declarations",
		Help: "Declarations in the current process, labelled by kind.",
	}, []string{"kind"})

	ProcessFragments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fwconfig_process_fragments",
		Help: "Fragments the current process was assembled from.",
	})

	LastAssemblySuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fwconfig_last_assembly_success_timestamp_seconds",
		Help: "Unix time of the last successful assembly.",
	})

	BranchesSelected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fwconfig_branches_selected_total",
		Help: "Branches run through an event content selection, labelled by set and decision.",
	}, []string{"event_content", "decision"})
)
