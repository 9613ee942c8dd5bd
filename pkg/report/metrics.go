package report

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics writes the stage counts of a run to path in the Prometheus
// text exposition format, for the node exporter textfile collector.
func WriteMetrics(path string, m *Manifest) error {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"run_id": m.RunID}

	genomes := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "magclass_genomes",
			Help:        "Genomes retained at each classification stage",
			ConstLabels: labels,
		},
		[]string{"stage"},
	)
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "magclass_last_run_timestamp_seconds",
		Help:        "Start time of the run (unix timestamp)",
		ConstLabels: labels,
	})
	increase := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "magclass_increase_ratio",
			Help:        "Relative quality increase over the best reference",
			ConstLabels: labels,
		},
		[]string{"stat"},
	)
	reg.MustRegister(genomes, lastRun, increase)

	c := m.Counts
	for stage, n := range map[string]int{
		"evaluated":          c.Evaluated,
		"identity_queries":   c.IdentityQueries,
		"clustered":          c.Clustered,
		"high_quality":       c.HighQuality,
		"candidates":         c.Candidates,
		"compared":           c.Compared,
		"better":             c.Better,
		"undefined_increase": c.UndefinedIncrease,
	} {
		genomes.WithLabelValues(stage).Set(float64(n))
	}
	lastRun.Set(float64(m.Started.Unix()))
	for stat, v := range m.Increase {
		if v != nil {
			increase.WithLabelValues(stat).Set(*v)
		}
	}

	return prometheus.WriteToTextfile(path, reg)
}
