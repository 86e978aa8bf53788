package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/repository"
)

type MockOutboxStore struct {
	Events       []*repository.OutboxEvent
	GetErr       error
	MarkErr      error
	ProcessedIDs []int64
}

func (m *MockOutboxStore) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if len(m.Events) > 0 {
		ev := []*repository.OutboxEvent{m.Events[0]} // return first event once
		m.Events = m.Events[1:]
		return ev, nil
	}
	return nil, nil
}

func (m *MockOutboxStore) MarkEventAsProcessed(_ context.Context, id int64) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.ProcessedIDs = append(m.ProcessedIDs, id)
	return nil
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	createTopic(t, brokerAddr, "order-events")

	// Give Kafka time to fully initialize the topic
	time.Sleep(5 * time.Second)

	mockStore := &MockOutboxStore{
		Events: []*repository.OutboxEvent{
			{
				ID:          1,
				AggregateID: "0f8fad5b-d9cb-469f-a165-70867728950e",
				EventType:   "order.finalized",
				Payload:     json.RawMessage(`{"order_id":"0f8fad5b-d9cb-469f-a165-70867728950e","user_id":7,"total_price":"20.00"}`),
				CreatedAt:   time.Now(),
			},
		},
	}

	poller := NewOutboxPoller(mockStore, zap.NewNop(), brokerAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	go poller.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    "order-events",
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)

	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", string(msg.Key))

	var payload map[string]interface{}
	err = json.Unmarshal(msg.Value, &payload)
	require.NoError(t, err)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", payload["order_id"])
	assert.Equal(t, "20.00", payload["total_price"])

	require.Len(t, mockStore.ProcessedIDs, 1)
	assert.Equal(t, int64(1), mockStore.ProcessedIDs[0])
}

func TestOutboxPoller_FetchError(t *testing.T) {
	mockStore := &MockOutboxStore{
		GetErr: errors.New("database connection error"),
	}

	poller := NewOutboxPoller(mockStore, zap.NewNop())

	// Should not panic, just log and return
	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, mockStore.ProcessedIDs)
}

func TestOutboxPoller_NoEvents(t *testing.T) {
	mockStore := &MockOutboxStore{}

	poller := NewOutboxPoller(mockStore, zap.NewNop())
	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, mockStore.ProcessedIDs)
}
