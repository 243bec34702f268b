package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishOrderCompleted(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)

	var sent OrderCompletedEvent
	var headers map[string]string
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, TopicOrderCompleted, msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "o1", string(key))

		headers = make(map[string]string)
		for _, h := range msg.Headers {
			headers[string(h.Key)] = string(h.Value)
		}

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		return json.Unmarshal(value, &sent)
	})

	p := NewPublisherWithProducer(producer, "")
	err := p.PublishOrderCompleted(context.Background(), OrderCompletedEvent{
		OrderID:     "o1",
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    4,
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.Equal(t, EventTypeOrderCompleted, sent.EventType)
	assert.NotEmpty(t, sent.EventID)
	assert.False(t, sent.Timestamp.IsZero())
	assert.Equal(t, 4, sent.Quantity)
	assert.Equal(t, EventTypeOrderCompleted, headers["event_type"])
	assert.Equal(t, sent.EventID, headers["event_id"])
}

func TestPublishOrderCompletedFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker unavailable"))

	p := NewPublisherWithProducer(producer, "orders")
	err := p.PublishOrderCompleted(context.Background(), OrderCompletedEvent{OrderID: "o1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	require.NoError(t, p.Close())
}
