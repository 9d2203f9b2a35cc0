// Package server exposes the processor's HTTP surface: the push delivery
// endpoint, a health probe and prometheus metrics.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"streamshare/internal/pipeline"
	"streamshare/internal/queue"
	"streamshare/video-processor/internal/jobs"
	"streamshare/video-processor/internal/worker"
)

// Submitter queues jobs for the worker pool.
type Submitter interface {
	SubmitJob(ctx context.Context, job worker.Job) error
}

// DefaultSubmitWait bounds how long a push delivery waits for room in the
// worker queue before it is answered with 503.
const DefaultSubmitWait = 30 * time.Second

// Server handles push deliveries of ingestion events.
type Server struct {
	pool       Submitter
	processor  jobs.MessageProcessor
	logger     *logrus.Logger
	submitWait time.Duration
}

func New(pool Submitter, processor jobs.MessageProcessor, logger *logrus.Logger) *Server {
	return &Server{pool: pool, processor: processor, logger: logger, submitWait: DefaultSubmitWait}
}

// App builds the fiber application.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Video processor service is running")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Post("/process-video", s.ProcessVideo)
	return app
}

// ProcessVideo handles one push delivery. The status code tells the push
// channel whether to redeliver: 2xx settles, 400 rejects, 5xx retries.
func (s *Server) ProcessVideo(c *fiber.Ctx) error {
	var env queue.PushEnvelope
	if err := c.BodyParser(&env); err != nil {
		s.logger.WithError(err).Warn("Invalid push request body")
		return c.Status(fiber.StatusBadRequest).SendString("Bad Request: invalid body")
	}
	msg, err := env.Decode()
	if err != nil {
		s.logger.WithError(err).Warn("Invalid Pub/Sub message format")
		return c.Status(fiber.StatusBadRequest).SendString("Bad Request: " + err.Error())
	}

	result := make(chan pipeline.Outcome, 1)
	job := jobs.NewTranscodeJob(msg, s.processor, func(_ context.Context, o pipeline.Outcome) error {
		result <- o
		return nil
	}, s.logger)

	submitCtx, cancel := context.WithTimeout(c.UserContext(), s.submitWait)
	err = s.pool.SubmitJob(submitCtx, job)
	cancel()
	if err != nil {
		if errors.Is(err, worker.ErrStopped) {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Shutting down")
		}
		s.logger.WithError(err).WithField("message_id", msg.ID).Warn("Worker queue full")
		return c.Status(fiber.StatusServiceUnavailable).SendString("Busy")
	}

	// The job outlives a server shutdown; the push channel redelivers and
	// the worker is idempotent.
	var outcome pipeline.Outcome
	select {
	case outcome = <-result:
	case <-c.Context().Done():
		return c.Status(fiber.StatusServiceUnavailable).SendString("Shutting down")
	}

	switch jobs.DispositionFor(outcome) {
	case queue.Ack:
		return c.Status(fiber.StatusOK).SendString(string(outcome))
	case queue.Reject:
		return c.Status(fiber.StatusBadRequest).SendString("Bad Request: rejected event")
	default:
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
}
