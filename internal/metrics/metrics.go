package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_pages_processed_total",
		Help: "The total number of catalog pages fully ingested and checkpointed",
	})
	PagesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_pages_failed_total",
		Help: "The total number of pages abandoned after fetch or write failures",
	})
	EntriesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_entries_created_total",
		Help: "The total number of catalog entries created from the external source",
	})
	EntriesUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_entries_updated_total",
		Help: "The total number of existing catalog entries whose metadata was refreshed",
	})
	EntriesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_entries_failed_total",
		Help: "The total number of entries dropped on write conflicts",
	})
	RecordsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_records_rejected_total",
		Help: "The total number of malformed upstream records rejected by the mapper",
	})
	PublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_publish_errors_total",
		Help: "The total number of errors publishing catalog events to RabbitMQ",
	})
	CheckpointSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_checkpoint_saves_total",
		Help: "The total number of successful checkpoint saves",
	})
	UpsertLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_sync_upsert_latency_seconds",
		Help:    "Latency of one page's transactional batch upsert",
		Buckets: prometheus.DefBuckets,
	})
)
