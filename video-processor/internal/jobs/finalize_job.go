package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"streamshare/internal/pipeline"
	"streamshare/internal/queue"
)

// FinalizeHandler reacts to one completed object write.
type FinalizeHandler interface {
	HandleObjectFinalized(ctx context.Context, obj queue.ObjectFinalized) pipeline.FinalizeResult
}

// FinalizeJob handles one storage notification delivery. The listener
// never asks for redelivery: failures are logged and the video stays in
// processing.
type FinalizeJob struct {
	msg     queue.Message
	handler FinalizeHandler
	settler Settler
	logger  *logrus.Logger
}

func NewFinalizeJob(msg queue.Message, handler FinalizeHandler, settler Settler, logger *logrus.Logger) *FinalizeJob {
	return &FinalizeJob{msg: msg, handler: handler, settler: settler, logger: logger}
}

func (j *FinalizeJob) ID() string {
	return j.msg.ID
}

func (j *FinalizeJob) Execute(ctx context.Context) error {
	log := j.logger.WithField("message_id", j.msg.ID)
	objs, skipped, err := queue.ParseObjectNotifications(j.msg.Body)
	if err != nil {
		log.WithError(err).Warn("Dropping unreadable storage notification")
		return j.settler.Settle(ctx, j.msg, queue.Reject)
	}
	for _, serr := range skipped {
		log.WithError(serr).Warn("Skipping unreadable notification record")
	}
	for _, obj := range objs {
		res := j.handler.HandleObjectFinalized(ctx, obj)
		log.WithFields(logrus.Fields{"object_path": obj.Name, "result": string(res)}).Info("Handled object notification")
	}
	return j.settler.Settle(ctx, j.msg, queue.Ack)
}
