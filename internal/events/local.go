package events

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/nanogen/studio/internal/logging"
)

// Local logs every published message and fans it out to in-process
// subscribers. It is the default backend when no broker is configured.
type Local struct {
	log logging.Logger

	mu     sync.Mutex
	seq    uint64
	subs   map[string][]chan Message
	closed bool
}

func NewLocal(log logging.Logger) *Local {
	if log == nil {
		log = logging.Discard()
	}
	return &Local{log: log, subs: make(map[string][]chan Message)}
}

// Publish never blocks on slow subscribers; a full subscriber buffer drops
// the message for that subscriber.
func (l *Local) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("events channel is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return "", errors.New("events backend closed")
	}
	l.seq++
	id := strconv.FormatUint(l.seq, 10)

	l.log.Info(ctx, "event published", "channel", channel, "id", id, "kind", attrs["kind"], "username", attrs["username"])

	msg := Message{ID: id, Data: data, Attributes: attrs}
	for _, ch := range l.subs[channel] {
		select {
		case ch <- msg:
		default:
			l.log.Warn(ctx, "event dropped for slow subscriber", "channel", channel, "id", id)
		}
	}
	return id, nil
}

// Subscribe delivers messages to handler until ctx is done.
func (l *Local) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("events channel is required")
	}

	ch := make(chan Message, 64)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return errors.New("events backend closed")
	}
	l.subs[channel] = append(l.subs[channel], ch)
	l.mu.Unlock()

	defer l.unsubscribe(channel, ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("events backend closed")
			}
			if err := handler(ctx, msg); err != nil {
				l.log.Warn(ctx, "event handler failed", "channel", channel, "id", msg.ID, "error", err)
			}
		}
	}
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for _, chans := range l.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	l.subs = nil
	return nil
}

func (l *Local) unsubscribe(channel string, target chan Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	chans := l.subs[channel]
	for i, ch := range chans {
		if ch == target {
			l.subs[channel] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
}
