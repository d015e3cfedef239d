package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/receipts"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockRepository struct {
	m         sync.Mutex
	events    []*receipts.OutboxEvent
	fetchErr  error
	markErr   error
	processed []int64
}

func (m *mockRepository) GetUnprocessedEvents(context.Context, int) ([]*receipts.OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []*receipts.OutboxEvent
	for _, e := range m.events {
		if !containsID(m.processed, e.ID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.processed = append(m.processed, id)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type mockWriter struct {
	messages []kafkaGo.Message
	failKey  string
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	for _, m := range msgs {
		if string(m.Key) == w.failKey {
			return errors.New("broker unavailable")
		}
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func event(id int64, orderID string) *receipts.OutboxEvent {
	return &receipts.OutboxEvent{
		ID:          id,
		AggregateID: orderID,
		EventType:   receipts.EventOrderPlaced,
		Payload:     []byte(fmt.Sprintf(`{"order_id":%s}`, orderID)),
		CreatedAt:   time.Now(),
	}
}

func TestProcess_PublishesAndMarks(t *testing.T) {
	repo := &mockRepository{events: []*receipts.OutboxEvent{event(1, "77"), event(2, "78")}}
	w := &mockWriter{}
	p := &OutboxPoller{eventTick: time.Second, batchSize: 10, repo: repo, writer: w}

	p.processUnpublishedEvents(context.Background())

	require.Len(t, w.messages, 2)
	assert.Equal(t, "77", string(w.messages[0].Key))
	assert.Equal(t, receipts.EventOrderPlaced, string(w.messages[0].Headers[0].Value))
	assert.Equal(t, []int64{1, 2}, repo.processed)
}

func TestProcess_FailedPublishStaysPending(t *testing.T) {
	repo := &mockRepository{events: []*receipts.OutboxEvent{event(1, "77"), event(2, "78")}}
	w := &mockWriter{failKey: "77"}
	p := &OutboxPoller{eventTick: time.Second, batchSize: 10, repo: repo, writer: w}

	p.processUnpublishedEvents(context.Background())
	assert.Equal(t, []int64{2}, repo.processed)

	w.failKey = ""
	p.processUnpublishedEvents(context.Background())
	assert.Equal(t, []int64{2, 1}, repo.processed)
}

func TestProcess_FetchErrorIsHandled(t *testing.T) {
	repo := &mockRepository{fetchErr: errors.New("db down")}
	w := &mockWriter{}
	p := &OutboxPoller{eventTick: time.Second, batchSize: 10, repo: repo, writer: w}

	p.processUnpublishedEvents(context.Background())
	assert.Empty(t, w.messages)
}

func TestProcess_MarkErrorContinues(t *testing.T) {
	repo := &mockRepository{events: []*receipts.OutboxEvent{event(1, "77"), event(2, "78")}, markErr: errors.New("db down")}
	w := &mockWriter{}
	p := &OutboxPoller{eventTick: time.Second, batchSize: 10, repo: repo, writer: w}

	p.processUnpublishedEvents(context.Background())
	assert.Len(t, w.messages, 2)
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := &OutboxPoller{eventTick: 10 * time.Millisecond, batchSize: 10, repo: &mockRepository{}, writer: &mockWriter{}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})
	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)

	repo := &mockRepository{events: []*receipts.OutboxEvent{event(1, "77")}}
	p := NewOutboxPoller(repo, brokers...)
	p.eventTick = 200 * time.Millisecond
	defer p.Close()

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	go p.Run(runCtx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  brokers,
		Topic:    TopicOrderPlaced,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(runCtx)
	require.NoError(t, err)
	assert.Equal(t, "77", string(msg.Key))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, float64(77), payload["order_id"])

	assert.Eventually(t, func() bool {
		repo.m.Lock()
		defer repo.m.Unlock()
		return containsID(repo.processed, 1)
	}, 5*time.Second, 100*time.Millisecond)
}
