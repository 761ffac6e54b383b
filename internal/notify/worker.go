package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"user-enrollment/backend/internal/logging"
)

// Worker drains SMSJob deliveries into a Notifier. Malformed messages are dropped; a failed
// send is requeued once and dropped on redelivery.
type Worker struct {
	sender  Notifier
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewWorker returns a Worker sending through sender. A non-positive timeout selects
// DefaultTimeout.
func NewWorker(sender Notifier, timeout time.Duration, log logrus.FieldLogger) *Worker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Worker{sender: sender, timeout: timeout, log: log}
}

// Run handles deliveries until the channel closes or ctx is done.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			w.Handle(ctx, msg)
		}
	}
}

// Handle processes one delivery and acknowledges it.
func (w *Worker) Handle(ctx context.Context, msg amqp.Delivery) {
	var job SMSJob
	if err := json.Unmarshal(msg.Body, &job); err != nil || job.Phone == "" || job.Code == "" {
		w.log.WithError(err).Warn("smsworker: bad message")
		_ = msg.Nack(false, false)
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Notify(sendCtx, job.Phone, job.Code); err != nil {
		w.log.WithError(err).WithField("phone", logging.MaskPhone(job.Phone)).Warn("smsworker: send failed")
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	w.log.WithField("phone", logging.MaskPhone(job.Phone)).Debug("smsworker: sent")
	_ = msg.Ack(false)
}
