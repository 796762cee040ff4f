package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kozaktomas/lora-person/internal/ingest"
)

var (
	uploadBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lora_upload_batches_total",
		Help: "Upload batches by outcome (completed, halted, rejected)",
	}, []string{"outcome"})

	uploadedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lora_uploaded_files_total",
		Help: "Files registered through console uploads",
	})

	runTriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lora_preprocess_triggers_total",
		Help: "Preprocess run triggers by outcome",
	}, []string{"outcome"})

	photoDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lora_photo_deletes_total",
		Help: "Photo deletions by outcome",
	}, []string{"outcome"})
)

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

// recordBatch counts a batch. A nil result means the batch never started.
func recordBatch(result *ingest.BatchResult, err error) {
	switch {
	case result == nil:
		uploadBatchesTotal.WithLabelValues("rejected").Inc()
		return
	case err != nil:
		uploadBatchesTotal.WithLabelValues("halted").Inc()
	default:
		uploadBatchesTotal.WithLabelValues("completed").Inc()
	}
	uploadedFilesTotal.Add(float64(len(result.Photos)))
}
