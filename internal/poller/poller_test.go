package poller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	msgs []kafka.Message
	err  error
}

func (r *mockReader) ReadMessage(context.Context) (kafka.Message, error) {
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *mockReader) Close() error { return nil }

type mockCatalog struct {
	invalidated []int64
	err         error
}

func (c *mockCatalog) Invalidate(_ context.Context, id int64) error {
	c.invalidated = append(c.invalidated, id)
	return c.err
}

func orderMessage(t *testing.T, items ...domain.OrderLineItem) kafka.Message {
	data, err := json.Marshal(domain.OrderPlacedEvent{OrderID: 77, SessionID: "s-1", Items: items})
	require.NoError(t, err)
	return kafka.Message{Key: []byte("77"), Value: data}
}

func TestProcessMessage_InvalidatesEachProductOnce(t *testing.T) {
	cat := &mockCatalog{}
	reader := &mockReader{msgs: []kafka.Message{orderMessage(t,
		domain.OrderLineItem{ProductID: 10, VariationID: 101, Quantity: 1},
		domain.OrderLineItem{ProductID: 10, VariationID: 102, Quantity: 1},
		domain.OrderLineItem{ProductID: 11, Quantity: 2},
	)}}
	p := &Poller{catalog: cat, reader: reader}

	p.processMessage(context.Background())
	assert.Equal(t, []int64{10, 11}, cat.invalidated)
}

func TestProcessMessage_InvalidationErrorContinues(t *testing.T) {
	cat := &mockCatalog{err: errors.New("redis down")}
	reader := &mockReader{msgs: []kafka.Message{orderMessage(t,
		domain.OrderLineItem{ProductID: 10, Quantity: 1},
		domain.OrderLineItem{ProductID: 11, Quantity: 1},
	)}}
	p := &Poller{catalog: cat, reader: reader}

	p.processMessage(context.Background())
	assert.Equal(t, []int64{10, 11}, cat.invalidated)
}

func TestProcessMessage_BadPayload(t *testing.T) {
	cat := &mockCatalog{}
	reader := &mockReader{msgs: []kafka.Message{{Value: []byte("{not json")}}}
	p := &Poller{catalog: cat, reader: reader}

	p.processMessage(context.Background())
	assert.Empty(t, cat.invalidated)
}

func TestProcessMessage_ReadError(t *testing.T) {
	cat := &mockCatalog{}
	p := &Poller{catalog: cat, reader: &mockReader{err: errors.New("broker gone")}}

	p.processMessage(context.Background())
	assert.Empty(t, cat.invalidated)
}

func TestRun_ReturnsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Poller{catalog: &mockCatalog{}, reader: &mockReader{err: context.Canceled}}
	p.Run(ctx)
}
