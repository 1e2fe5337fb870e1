package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturePublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (c *capturePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendLeadNotification(ctx context.Context, payload LeadFinalizedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func samplePayload() LeadFinalizedPayload {
	return LeadFinalizedPayload{
		EventID:        "evt-1",
		LeadID:         42,
		Origin:         "STEPPED_FORM",
		Name:           "Alice",
		Gender:         "female",
		Contact:        "alice@example.com",
		Industry:       "fintech",
		JobRole:        "cto",
		PreferenceType: "invest",
		CreatedAt:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestProducer_PublishesPersistentJSON(t *testing.T) {
	pub := &capturePublisher{}
	p := NewProducer(pub)

	err := p.PublishLeadFinalized(context.Background(), samplePayload())
	require.NoError(t, err)

	assert.Equal(t, ExchangeName, pub.exchange)
	assert.Equal(t, RoutingKey, pub.key)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, "evt-1", pub.msg.MessageId)

	var got LeadFinalizedPayload
	require.NoError(t, json.Unmarshal(pub.msg.Body, &got))
	assert.Equal(t, int64(42), got.LeadID)
	assert.Equal(t, "STEPPED_FORM", got.Origin)
}

func TestProducer_WrapsBrokerError(t *testing.T) {
	pub := &capturePublisher{err: errors.New("channel closed")}
	p := NewProducer(pub)

	err := p.PublishLeadFinalized(context.Background(), samplePayload())
	assert.ErrorContains(t, err, "lead 42")
}

func TestWorker_ProcessDeliversToNotifier(t *testing.T) {
	n := new(MockNotifier)
	n.On("SendLeadNotification", mock.Anything, mock.MatchedBy(func(p LeadFinalizedPayload) bool {
		return p.LeadID == 42 && p.Name == "Alice"
	})).Return(nil)

	w := NewWorker(nil, n, zap.NewNop())
	body, _ := json.Marshal(samplePayload())

	assert.NoError(t, w.Process(context.Background(), body))
	n.AssertExpectations(t)
}

func TestWorker_ProcessRejectsBadBodies(t *testing.T) {
	n := new(MockNotifier)
	w := NewWorker(nil, n, zap.NewNop())

	assert.Error(t, w.Process(context.Background(), []byte("{not json")))
	assert.Error(t, w.Process(context.Background(), []byte(`{"name":"x"}`)))
	n.AssertNotCalled(t, "SendLeadNotification", mock.Anything, mock.Anything)
}

func TestWorker_ProcessPropagatesNotifierError(t *testing.T) {
	n := new(MockNotifier)
	n.On("SendLeadNotification", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	w := NewWorker(nil, n, zap.NewNop())
	body, _ := json.Marshal(samplePayload())

	assert.EqualError(t, w.Process(context.Background(), body), "smtp down")
}
