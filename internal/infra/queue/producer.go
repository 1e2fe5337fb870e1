package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadFinalizedPayload is published once per completed lead, from either form.
type LeadFinalizedPayload struct {
	EventID string `json:"event_id"`
	LeadID  int64  `json:"lead_id"`
	Origin  string `json:"origin"`

	Name               string    `json:"name"`
	Gender             string    `json:"gender"`
	Contact            string    `json:"contact"`
	Industry           string    `json:"industry"`
	JobRole            string    `json:"job_role"`
	PreferenceType     string    `json:"preference_type"`
	ExpectedInvestment string    `json:"expected_investment,omitempty"`
	HighNetWorth       string    `json:"high_net_worth,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadFinalized(ctx context.Context, payload LeadFinalizedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    payload.EventID,
			Timestamp:    payload.CreatedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish lead %d: %w", payload.LeadID, err)
	}
	return nil
}
