package traverse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	traversalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedergraph_traversals_total",
		Help: "Total traversals by kind and outcome",
	}, []string{"kind", "outcome"})

	traversalNodes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedergraph_traversal_nodes",
		Help:    "Number of nodes returned per traversal",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	}, []string{"kind"})

	pathRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedergraph_path_recoveries_total",
		Help: "Predecessors found through the next_nodes fallback",
	})
)

func observeDownstream(n int) {
	traversalsTotal.WithLabelValues("downstream", "ok").Inc()
	traversalNodes.WithLabelValues("downstream").Observe(float64(n))
}

func observePath(p Path) {
	traversalsTotal.WithLabelValues("path", string(p.Stop)).Inc()
	traversalNodes.WithLabelValues("path").Observe(float64(len(p.Nodes)))
	if p.Recovered > 0 {
		pathRecoveries.Add(float64(p.Recovered))
	}
}
