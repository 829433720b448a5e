package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_frametype_analyses_processed_total",
		Help: "Total number of analysis requests processed, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiapx_frametype_stage_duration_seconds",
		Help:    "Duration of each analysis pipeline stage",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesClassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_frametype_frames_classified_total",
		Help: "Total number of frames classified, by picture type",
	}, []string{"frame_type"})

	FramesExtractedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_frametype_frames_extracted_total",
		Help: "Total number of frame images written, by picture type",
	}, []string{"frame_type"})

	EngineFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_frametype_engine_failures_total",
		Help: "Failed ffmpeg/ffprobe invocations, by stage kind",
	}, []string{"kind"})

	EngineUnavailableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_frametype_engine_unavailable_total",
		Help: "Readiness checks that found ffmpeg or ffprobe missing",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fiapx_frametype_active_workers",
		Help: "Number of currently active workers running an analysis",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_frametype_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
