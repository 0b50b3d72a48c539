package anime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "anime",
		Subsystem: "session",
		Name:      "frames_written_total",
		Help:      "Frames written to the AniMe display",
	})

	writeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anime",
		Subsystem: "session",
		Name:      "write_errors_total",
		Help:      "Failed device writes by operation",
	}, []string{"op"})

	sequenceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anime",
		Subsystem: "sequencer",
		Name:      "runs_total",
		Help:      "Sequence runs started per sequence name",
	}, []string{"sequence"})

	sequenceAborts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "anime",
		Subsystem: "sequencer",
		Name:      "aborted_runs_total",
		Help:      "Runs terminated early because the device went away",
	})

	sequencerRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "anime",
		Subsystem: "sequencer",
		Name:      "running",
		Help:      "1 while a sequence run is active",
	})

	displayEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "anime",
		Subsystem: "session",
		Name:      "display_enabled",
		Help:      "1 when the display is enabled",
	})
)

func boolGauge(g prometheus.Gauge, on bool) {
	if on {
		g.Set(1)
		return
	}
	g.Set(0)
}
