package jobs

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"streamshare/internal/pipeline"
	"streamshare/internal/queue"
)

// MessageProcessor runs the transcode pipeline for one event payload.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, body []byte) pipeline.Outcome
}

// Settler settles a received queue message.
type Settler interface {
	Settle(ctx context.Context, msg queue.Message, d queue.Disposition) error
}

// DispositionFor maps a worker outcome to what the channel should do with
// the delivery.
func DispositionFor(o pipeline.Outcome) queue.Disposition {
	switch o {
	case pipeline.OutcomeProcessed, pipeline.OutcomeFailed:
		return queue.Ack
	case pipeline.OutcomeRejected:
		return queue.Reject
	default:
		return queue.Retry
	}
}

// TranscodeJob processes one ingestion event delivery.
type TranscodeJob struct {
	msg       queue.Message
	processor MessageProcessor
	done      func(ctx context.Context, o pipeline.Outcome) error
	logger    *logrus.Logger
}

// NewTranscodeJob creates a job for msg. done receives the outcome once
// processing finishes.
func NewTranscodeJob(msg queue.Message, processor MessageProcessor, done func(ctx context.Context, o pipeline.Outcome) error, logger *logrus.Logger) *TranscodeJob {
	return &TranscodeJob{msg: msg, processor: processor, done: done, logger: logger}
}

// SettleOutcome returns a done callback settling msg on s.
func SettleOutcome(s Settler, msg queue.Message) func(ctx context.Context, o pipeline.Outcome) error {
	return func(ctx context.Context, o pipeline.Outcome) error {
		return s.Settle(ctx, msg, DispositionFor(o))
	}
}

func (j *TranscodeJob) ID() string {
	return j.msg.ID
}

// Execute runs the pipeline and reports the outcome. It returns an error
// only when the outcome could not be delivered.
func (j *TranscodeJob) Execute(ctx context.Context) error {
	outcome := j.processor.ProcessMessage(ctx, j.msg.Body)
	j.logger.WithFields(logrus.Fields{
		"message_id":    j.msg.ID,
		"receive_count": j.msg.ReceiveCount,
		"outcome":       string(outcome),
	}).Info("Transcode job finished")

	if j.done == nil {
		return nil
	}
	if err := j.done(ctx, outcome); err != nil {
		return fmt.Errorf("failed to settle message %s: %w", j.msg.ID, err)
	}
	return nil
}
