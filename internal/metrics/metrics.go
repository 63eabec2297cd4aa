package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FilesUploaded counts accepted uploads.
	FilesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediaportal_files_uploaded_total",
		Help: "Number of files accepted by the upload gateway.",
	})

	// FilesProcessed counts finished processing runs by detected category and
	// terminal status.
	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediaportal_files_processed_total",
		Help: "Number of background processing runs reaching a terminal status.",
	}, []string{"category", "status"})

	// ProcessingDuration observes wall time of processing runs.
	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediaportal_processing_duration_seconds",
		Help:    "Duration of background processing runs.",
		Buckets: prometheus.DefBuckets,
	})

	// QueueRejected counts enqueue attempts dropped because the queue was full.
	QueueRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediaportal_processing_queue_rejected_total",
		Help: "Number of processing enqueues rejected due to a full queue.",
	})
)

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
