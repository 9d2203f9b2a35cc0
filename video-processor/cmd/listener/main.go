package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"streamshare/config"
	"streamshare/internal/pipeline"
	"streamshare/internal/queue"
	"streamshare/models"
	"streamshare/video-processor/internal/jobs"
)

// The listener consumes bucket notifications for the raw upload bucket,
// creates video records and publishes ingestion events.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := config.NewLogger(cfg, "finalize-listener")

	if cfg.FinalizeQueueURL == "" || cfg.IngestionQueueURL == "" {
		log.Fatal("FINALIZE_QUEUE_URL and INGESTION_QUEUE_URL must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := config.NewDocumentStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize document store")
	}
	defer closeStore()

	sqsClient, err := config.NewSQSClient(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize SQS client")
	}
	publisher := queue.NewSQSPublisher(sqsClient, map[string]string{models.IngestionTopic: cfg.IngestionQueueURL}, log)
	listener := pipeline.NewFinalizeListener(store, publisher, cfg.RawBucket, log)
	consumer := queue.NewSQSConsumer(sqsClient, cfg.FinalizeQueueURL, cfg.VisibilityTimeout, log)

	log.WithField("bucket", cfg.RawBucket).Info("Finalize listener started")
	err = consumer.Run(ctx, func(ctx context.Context, msg queue.Message) error {
		return jobs.NewFinalizeJob(msg, listener, consumer, log).Execute(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Consumer stopped")
	}
	log.Info("Finalize listener shut down")
}
