package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the capture -> compression -> hint pipeline. The HTTP-level
// request metrics come from the fiberprometheus middleware; these track the
// domain outcomes that request counts can't show.
var (
	CapturesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thynk_captures_processed_total",
		Help: "Captures that passed OCR and entered the novelty filter",
	})

	CapturesDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thynk_captures_duplicate_total",
		Help: "Captures rejected by the novelty filter as too similar",
	})

	CompressionsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thynk_compressions_stored_total",
		Help: "Compressed context entries written to the store",
	})

	CompressionsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thynk_compressions_discarded_total",
		Help: "Compression results discarded as educationally irrelevant",
	})

	CompressionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thynk_compression_fallbacks_total",
		Help: "Raw-text fallbacks stored after a completion provider failure",
	})

	HintsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thynk_hints_generated_total",
		Help: "Hints successfully generated by the completion provider",
	})

	HintFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thynk_hint_fallbacks_total",
		Help: "Fixed fallback hints returned after a provider failure",
	})
)
