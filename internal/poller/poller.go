// Package poller consumes order-placed events and evicts the ordered
// products from the catalog cache, since their stock changed upstream.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/publisher"
	"github.com/segmentio/kafka-go"
)

type Invalidator interface {
	Invalidate(ctx context.Context, productID int64) error
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Poller struct {
	catalog Invalidator
	reader  MessageReader
}

func NewPoller(catalog Invalidator, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    publisher.TopicOrderPlaced,
		GroupID:  "storefront-stock-invalidator",
		MaxBytes: 10e6,
	})
	return &Poller{catalog: catalog, reader: reader}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.processMessage(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		slog.Error("error closing kafka reader", "error", err)
	}
}

func (p *Poller) processMessage(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "error reading message", "error", err)
		}
		return
	}

	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		slog.ErrorContext(ctx, "error parsing order placed event", "offset", m.Offset, "error", err)
		return
	}

	seen := make(map[int64]struct{}, len(event.Items))
	for _, item := range event.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		if err := p.catalog.Invalidate(ctx, item.ProductID); err != nil {
			slog.ErrorContext(ctx, "failed to invalidate product", "product_id", item.ProductID, "order_id", event.OrderID, "error", err)
		}
	}
	slog.DebugContext(ctx, "stock invalidated", "order_id", event.OrderID, "products", len(seen))
}
