package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/gomarketplace/internal/domain"
	pkgkafka "github.com/utafrali/gomarketplace/pkg/kafka"
	"github.com/utafrali/gomarketplace/pkg/logger"
)

// TopicCartUpdated carries every published cart snapshot.
var TopicCartUpdated = pkgkafka.Topic("cart", "updated")

// Aggregate type constant.
const AggregateTypeCart = "cart"

// SourceCartService identifies events emitted by this service.
const SourceCartService = "cart-service"

// CartUpdatedData is the payload for a cart.updated event.
//
// Version counts snapshots within one process and starts again after a
// restart. Order events by (InstanceID, Version) within one process and by
// the envelope timestamp across processes.
type CartUpdatedData struct {
	StorageKey string         `json:"storage_key"`
	InstanceID string         `json:"instance_id"`
	Items      []CartItemData `json:"items"`
	ItemCount  int            `json:"item_count"`
	Version    uint64         `json:"version"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Publisher is the part of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka      Publisher
	storageKey string
	instanceID string
	logger     *slog.Logger
}

// NewProducer creates a new event producer. storageKey is used as the
// aggregate id, so all events for one cart land on one partition.
func NewProducer(kafka Publisher, storageKey string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:      kafka,
		storageKey: storageKey,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// PublishCartUpdated publishes a cart.updated event for c.
func (p *Producer) PublishCartUpdated(ctx context.Context, c domain.Cart) error {
	src := c.Items()
	items := make([]CartItemData, len(src))
	for i, item := range src {
		items[i] = CartItemData{
			ID:       item.ID,
			Title:    item.Title,
			ImageURL: item.ImageURL,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}

	data := CartUpdatedData{
		StorageKey: p.storageKey,
		InstanceID: p.instanceID,
		Items:      items,
		ItemCount:  c.ItemCount(),
		Version:    c.Version(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, SourceCartService,
		pkgkafka.Aggregate{Type: AggregateTypeCart, ID: p.storageKey}, data,
		pkgkafka.WithVersion(c.Version()),
		pkgkafka.WithCorrelationID(logger.CorrelationIDFromContext(ctx)),
	)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.Uint64("version", c.Version()),
		slog.Int("item_count", c.ItemCount()),
	)

	return nil
}
