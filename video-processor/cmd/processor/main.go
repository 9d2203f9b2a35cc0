package main

import (
	"context"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"streamshare/config"
	"streamshare/internal/pipeline"
	"streamshare/internal/queue"
	"streamshare/video-processor/internal/ffmpeg"
	"streamshare/video-processor/internal/jobs"
	"streamshare/video-processor/internal/server"
	"streamshare/video-processor/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := config.NewLogger(cfg, "video-processor")
	log.Info("Starting Video Processor...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := config.NewDocumentStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize document store")
	}
	defer closeStore()

	objects, err := config.NewObjectStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize object store")
	}

	transcoder := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, log)
	w := pipeline.NewWorker(objects, store, transcoder, cfg.ProcessedBucket, cfg.ScratchDir, pipeline.DefaultProfiles(), log)

	// Jobs run on a context that outlives the signal so in-flight renders
	// finish during shutdown.
	dispatcher := worker.NewDispatcher(cfg.WorkerCount, cfg.WorkerQueueSize, log)
	dispatcher.Run(context.WithoutCancel(ctx))

	healthSrv := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	lis, err := net.Listen("tcp", cfg.GRPCHealthAddress)
	if err != nil {
		log.WithError(err).Fatal("Failed to listen for gRPC health checks")
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC health server stopped")
		}
	}()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	var wg sync.WaitGroup
	if cfg.ProcessorMode == "pull" || cfg.ProcessorMode == "both" {
		if cfg.IngestionQueueURL == "" {
			log.Fatal("INGESTION_QUEUE_URL must be set in pull mode")
		}
		sqsClient, err := config.NewSQSClient(ctx, cfg)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize SQS client")
		}
		consumer := queue.NewSQSConsumer(sqsClient, cfg.IngestionQueueURL, cfg.VisibilityTimeout, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = consumer.Run(ctx, func(ctx context.Context, msg queue.Message) error {
				job := jobs.NewTranscodeJob(msg, w, jobs.SettleOutcome(consumer, msg), log)
				return dispatcher.SubmitJob(ctx, job)
			})
		}()
	}

	// The HTTP server always runs for health and metrics; /process-video is
	// only fed in push mode.
	app := server.New(dispatcher, w, log).App()
	go func() {
		log.WithFields(logrus.Fields{"address": cfg.ProcessorAddress, "mode": cfg.ProcessorMode}).Info("Video processor listening")
		if err := app.Listen(cfg.ProcessorAddress); err != nil {
			log.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down Video Processor...")
	healthSrv.Shutdown()

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	wg.Wait()
	dispatcher.Stop()
	grpcServer.GracefulStop()
	log.Info("Video Processor shut down gracefully.")
}
