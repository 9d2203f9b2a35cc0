// Package metrics holds the prometheus collectors shared by the binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamshare_upload_urls_issued_total",
		Help: "Signed upload URLs issued",
	})
	ObjectsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamshare_objects_finalized_total",
		Help: "Object finalize notifications by result",
	}, []string{"result"})
	Invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamshare_transcode_invocations_total",
		Help: "Transcode worker invocations by outcome",
	}, []string{"outcome"})
	RenditionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamshare_rendition_duration_seconds",
		Help:    "Time taken to transcode and upload one rendition",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"profile"})
	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamshare_worker_active_jobs",
		Help: "Transcode jobs currently running in this process",
	})
)
