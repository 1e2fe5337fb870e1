package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notifier delivers a finalized lead to the sales inbox.
type Notifier interface {
	SendLeadNotification(ctx context.Context, payload LeadFinalizedPayload) error
}

type Worker struct {
	Channel  *amqp.Channel
	Notifier Notifier
	Log      *zap.Logger
}

func NewWorker(ch *amqp.Channel, notifier Notifier, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{Channel: ch, Notifier: notifier, Log: log}
}

// Start consumes until ctx is cancelled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", queueName, err)
	}

	w.Log.Info("worker consuming", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				w.Log.Warn("delivery channel closed", zap.String("queue", queueName))
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	if err := w.Process(ctx, d.Body); err != nil {
		w.Log.Error("lead notification failed", zap.String("message_id", d.MessageId), zap.Error(err))
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}

// Process decodes one message and hands it to the notifier. Malformed bodies are
// an error so they go to the dead letter queue.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var payload LeadFinalizedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if payload.LeadID == 0 {
		return fmt.Errorf("payload without lead id")
	}

	if err := w.Notifier.SendLeadNotification(ctx, payload); err != nil {
		return err
	}
	w.Log.Info("lead notification sent", zap.Int64("lead_id", payload.LeadID), zap.String("origin", payload.Origin))
	return nil
}
