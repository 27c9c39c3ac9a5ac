// Package bus is the channel-based message bus adapter that stands in for
// the transport the emulator is specified as a collaborator of: a single
// process registers endpoints on it, subscribes to topics, and sends typed
// payloads to named endpoints. It generalizes the teacher's events.EventBus
// from a fixed event-type enum to open string topics, since the emulator
// needs to address both commands (OrderEmulator.execute, RiskEngine.execute,
// ExecEngine.execute, {exec_algorithm_id}.execute) and events
// (events.order.{strategy_id}, events.position.{strategy_id}).
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Message is an envelope carrying a topic and an arbitrary payload. The
// payload is typically a *domain.TradingCommand or a domain.Event.
type Message struct {
	Topic   string
	Payload any
}

// Bus is a non-blocking, per-subscriber-buffered pub/sub fan-out, matching
// the teacher's EventBus semantics: a slow subscriber drops events for
// itself rather than stalling the publisher or other subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Message
	bufferSize  int
	logger      zerolog.Logger

	metricsLock    sync.RWMutex
	publishedCount map[string]int64
	droppedCount   map[string]int64

	onDrop func(topic string)
}

// OnDrop registers a callback invoked once per dropped message, at the
// moment of the drop; the per-topic counters are updated after the whole
// send completes. Used to feed an external Prometheus
// counter without the bus depending on the metrics package directly.
func (b *Bus) OnDrop(fn func(topic string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDrop = fn
}

// New creates a Bus with the given per-subscriber channel buffer size.
func New(bufferSize int, logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers:    make(map[string][]chan Message),
		bufferSize:     bufferSize,
		logger:         logger,
		publishedCount: make(map[string]int64),
		droppedCount:   make(map[string]int64),
	}
}

// Subscribe registers a new buffered subscriber on topic.
func (b *Bus) Subscribe(topic string) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, b.bufferSize)
	b.subscribers[topic] = append(b.subscribers[topic], ch)

	b.logger.Info().
		Str("topic", topic).
		Int("total_subscribers", len(b.subscribers[topic])).
		Msg("bus: new subscriber registered")

	return ch
}

// Send publishes a single payload to topic, non-blocking per subscriber.
func (b *Bus) Send(topic string, payload any) {
	b.mu.RLock()
	subscribers := b.subscribers[topic]
	onDrop := b.onDrop
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		b.logger.Debug().Str("topic", topic).Msg("bus: no subscribers for topic")
		return
	}

	msg := Message{Topic: topic, Payload: payload}

	var dropped int
	for i, ch := range subscribers {
		select {
		case ch <- msg:
		default:
			dropped++
			b.logger.Warn().
				Str("topic", topic).
				Int("subscriber_index", i).
				Int("buffer_size", b.bufferSize).
				Msg("bus: subscriber channel full, message dropped")
			if onDrop != nil {
				onDrop(topic)
			}
		}
	}

	b.updateMetrics(topic, len(subscribers)-dropped, dropped)
}

// SendBlocking publishes to every subscriber, blocking until delivered or
// ctx is canceled. Reserved for paths where dropping is not acceptable.
func (b *Bus) SendBlocking(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	subscribers := b.subscribers[topic]
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		return nil
	}

	msg := Message{Topic: topic, Payload: payload}
	for _, ch := range subscribers {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return fmt.Errorf("bus: publish to %q canceled: %w", topic, ctx.Err())
		}
	}
	b.updateMetrics(topic, len(subscribers), 0)
	return nil
}

// Unsubscribe removes ch from topic's subscriber list and closes it.
func (b *Bus) Unsubscribe(topic string, ch <-chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, s := range subs {
		if s == ch {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			close(s)
			return
		}
	}
}

// Close shuts down the bus, closing every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		b.logger.Info().Str("topic", topic).Int("subscribers", len(subs)).Msg("bus: closed subscriber channels")
	}
	b.subscribers = make(map[string][]chan Message)
}

// TopicMetrics reports published/dropped counters for a single topic.
type TopicMetrics struct {
	Published int64
	Dropped   int64
}

func (b *Bus) Metrics() map[string]TopicMetrics {
	b.metricsLock.RLock()
	defer b.metricsLock.RUnlock()

	out := make(map[string]TopicMetrics, len(b.publishedCount))
	for topic, n := range b.publishedCount {
		out[topic] = TopicMetrics{Published: n, Dropped: b.droppedCount[topic]}
	}
	return out
}

func (b *Bus) updateMetrics(topic string, published, dropped int) {
	b.metricsLock.Lock()
	defer b.metricsLock.Unlock()
	b.publishedCount[topic] += int64(published)
	b.droppedCount[topic] += int64(dropped)
}
