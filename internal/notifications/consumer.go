package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox/registry"
)

const notificationConsumer = "notifications"

type eventDecoder interface {
	Decode(eventType enums.OutboxEventType, raw json.RawMessage) (*registry.ResolvedEvent, error)
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type eventHandler interface {
	Handle(ctx context.Context, event *registry.ResolvedEvent) error
}

// Consumer receives domain events from Pub/Sub and fans them out as notifications.
type Consumer struct {
	subscription *pubsub.Subscriber
	decoder      eventDecoder
	idempotency  idempotencyGuard
	handler      eventHandler
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(subscription *pubsub.Subscriber, decoder eventDecoder, guard idempotencyGuard, handler eventHandler, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if decoder == nil {
		return nil, fmt.Errorf("event decoder required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if handler == nil {
		return nil, fmt.Errorf("notification handler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		decoder:      decoder,
		idempotency:  guard,
		handler:      handler,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked.
func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	eventType := attrs["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	parsedType, err := enums.ParseOutboxEventType(eventType)
	if err != nil {
		c.logg.Warn(logCtx, "skipping unknown event type")
		return true
	}

	event, err := c.decoder.Decode(parsedType, data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode event", err)
		return true
	}

	eventID, err := uuid.Parse(event.Envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return true
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	if err := c.handler.Handle(ctx, event); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		if delErr := c.idempotency.Delete(ctx, notificationConsumer, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to clear idempotency key", delErr)
		}
		return false
	}

	c.logg.Info(logCtx, "notifications dispatched")
	return true
}
