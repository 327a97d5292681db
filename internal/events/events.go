// Package events publishes studio activity to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nanogen/studio/config"
	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/types"
)

const DefaultChannel = "nanogen-generations"

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Bus encodes generation events and sends them to one channel.
type Bus struct {
	backend Backend
	channel string
}

// New constructs a Bus for the provided backend.
func New(backend Backend, channel string) *Bus {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	return &Bus{backend: backend, channel: channel}
}

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.EventsConfig, log logging.Logger) (*Bus, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "log":
		backend = NewLocal(log)
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s events backend: %w", cfg.Backend, err)
	}
	return New(backend, cfg.Channel), nil
}

// Channel is the name events are published to.
func (b *Bus) Channel() string {
	return b.channel
}

// Publish sends ev as JSON, tagged with its kind.
func (b *Bus) Publish(ctx context.Context, ev types.GenerationEvent) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return b.backend.Publish(ctx, b.channel, data, map[string]string{
		"kind":     ev.Kind,
		"username": ev.Username,
	})
}

// Subscribe decodes events from the channel until ctx is done. Messages
// that do not decode are rejected.
func (b *Bus) Subscribe(ctx context.Context, handler func(ctx context.Context, ev types.GenerationEvent) error) error {
	return b.backend.Subscribe(ctx, b.channel, func(ctx context.Context, msg Message) error {
		var ev types.GenerationEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return fmt.Errorf("decode event %s: %w", msg.ID, err)
		}
		return handler(ctx, ev)
	})
}

// Close closes the underlying backend.
func (b *Bus) Close() error {
	return b.backend.Close()
}
