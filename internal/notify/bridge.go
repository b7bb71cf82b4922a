package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/swimref/roster/internal/application"
)

const publishTimeout = 5 * time.Second

// bridgePayload is one toast published for every instance's hub.
type bridgePayload struct {
	Origin  string  `json:"origin"`
	Message Message `json:"message"`
}

// RedisBridge fans toasts out to every instance over Redis pub/sub. Deliver
// only publishes; each instance's Run loop pushes received toasts to its
// local hub, including the instance that published them.
type RedisBridge struct {
	client  *goredis.Client
	channel string
	origin  string
	hub     *Hub
	logger  *slog.Logger
}

// NewRedisBridge returns a bridge on channel prefix+"notifications".
func NewRedisBridge(client *goredis.Client, prefix, origin string, hub *Hub, logger *slog.Logger) *RedisBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBridge{
		client:  client,
		channel: prefix + "notifications",
		origin:  origin,
		hub:     hub,
		logger:  logger.With("component", "notify.RedisBridge"),
	}
}

// Deliver publishes the toasts the recipients allow.
func (b *RedisBridge) Deliver(ctx context.Context, deliveries []application.Delivery) error {
	for _, d := range deliveries {
		if !Allows(d.Recipient.Preferences, d.Notification.Category, ChannelToast) {
			continue
		}
		body, err := json.Marshal(bridgePayload{Origin: b.origin, Message: NewMessage(d.Notification)})
		if err != nil {
			return err
		}
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err = b.client.Publish(pubCtx, b.channel, body).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("publish notification %s: %w", d.Notification.ID, err)
		}
	}
	return nil
}

// Run subscribes to the channel and forwards messages to the local hub until
// ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.InfoContext(ctx, "subscribed to notification fan-out", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var p bridgePayload
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				b.logger.WarnContext(ctx, "discarding malformed fan-out message", "error", err)
				continue
			}
			b.hub.SendToUser(p.Message.RecipientID, p.Message)
		}
	}
}
