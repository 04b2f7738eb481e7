// Package eventbus provides in-process typed publish/subscribe and
// request/reply between app components, plus relay of a subset of
// events to server-sent-event streams.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// sseRelayEventType is the special channel every published event is
// re-published to (wrapped) for SSE fan-out. Publishing to this
// channel itself is never relayed again, preventing recursion.
const sseRelayEventType = "__sse_relay__"

// Handler processes a published event's payload. It is called with
// the originating app id. Handlers registered via Subscribe may block;
// the bus invokes each one in its own goroutine.
type Handler func(ctx context.Context, data map[string]any, sourceApp string) (any, error)

// Subscription describes one registered handler, returned by
// ListSubscriptions for introspection.
type Subscription struct {
	ID        string
	EventType string
	AppID     string
}

type subscriber struct {
	id        string
	eventType string
	appID     string
	handler   Handler
}

// Bus is an in-process typed event bus. The zero value is not usable;
// construct with New.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscriber
	registry    *ContractRegistry
}

// New constructs an empty Bus. Pass a ContractRegistry to validate
// published payloads against declared contracts, or nil to skip
// validation.
func New(registry *ContractRegistry) *Bus {
	return &Bus{
		subscribers: make(map[string][]*subscriber),
		registry:    registry,
	}
}

// Publish validates data against any declared contract for eventType
// (dropping the publish on validation failure rather than erroring),
// delivers the event concurrently to every matching subscriber, and
// re-publishes a wrapped copy to the SSE relay channel unless eventType
// is itself the relay channel.
func (b *Bus) Publish(ctx context.Context, eventType string, data map[string]any, sourceApp string) {
	if b.registry != nil {
		if contract, ok := b.registry.Lookup(eventType); ok {
			if err := contract.PayloadSchema.Validate(data); err != nil {
				slog.Warn("event payload failed contract validation, dropping publish",
					"event_type", eventType, "error", err)
				return
			}
		}
	}

	b.deliver(ctx, eventType, data, sourceApp)

	if eventType != sseRelayEventType {
		relayPayload := make(map[string]any, len(data)+2)
		for k, v := range data {
			relayPayload[k] = v
		}
		relayPayload["event_type"] = eventType
		relayPayload["source_app"] = sourceApp
		b.deliver(ctx, sseRelayEventType, relayPayload, sourceApp)
	}
}

func (b *Bus) deliver(ctx context.Context, eventType string, data map[string]any, sourceApp string) {
	b.mu.RLock()
	subs := append([]*subscriber(nil), b.subscribers[eventType]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub := sub
		go func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("event handler panicked", "event_type", eventType, "subscription_id", sub.id, "panic", r)
				}
			}()
			if _, err := sub.handler(ctx, data, sourceApp); err != nil {
				slog.Warn("event handler returned error", "event_type", eventType, "subscription_id", sub.id, "error", err)
			}
		}()
	}
}

// Subscribe registers handler for eventType, optionally scoped to
// appID for introspection, and returns a subscription id usable with
// Unsubscribe.
func (b *Bus) Subscribe(eventType string, appID string, handler Handler) string {
	sub := &subscriber{
		id:        uuid.NewString(),
		eventType: eventType,
		appID:     appID,
		handler:   handler,
	}

	b.mu.Lock()
	b.subscribers[eventType] = append(b.subscribers[eventType], sub)
	b.mu.Unlock()

	return sub.id
}

// Unsubscribe removes a previously registered subscription.
func (b *Bus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for eventType, subs := range b.subscribers {
		for i, sub := range subs {
			if sub.id == subscriptionID {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// ErrNoHandler is returned by Request when no handler is registered
// for the requested event type.
var ErrNoHandler = fmt.Errorf("eventbus: no handler registered for event type")

// ErrTimeout is returned by Request when the handler does not return
// within the given timeout.
var ErrTimeout = fmt.Errorf("eventbus: handler did not respond within timeout")

// Request invokes the first registered handler for eventType and waits
// up to timeout for its response. A non-map return is wrapped as
// {"result": value}.
func (b *Bus) Request(ctx context.Context, eventType string, data map[string]any, sourceApp string, timeout time.Duration) (map[string]any, error) {
	b.mu.RLock()
	subs := b.subscribers[eventType]
	var handler Handler
	if len(subs) > 0 {
		handler = subs[0].handler
	}
	b.mu.RUnlock()

	if handler == nil {
		return nil, ErrNoHandler
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- outcome{err: fmt.Errorf("eventbus: handler panicked: %v", r)}
			}
		}()
		result, err := handler(ctx, data, sourceApp)
		resultCh <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ErrTimeout
	case out := <-resultCh:
		if out.err != nil {
			return nil, out.err
		}
		if m, ok := out.result.(map[string]any); ok {
			return m, nil
		}
		return map[string]any{"result": out.result}, nil
	}
}

// ListSubscriptions returns every registered subscription, grouped by
// event type. Within one event type they appear in registration order;
// the order of the event-type groups is not defined.
func (b *Bus) ListSubscriptions() []Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Subscription
	for eventType, subs := range b.subscribers {
		for _, sub := range subs {
			out = append(out, Subscription{ID: sub.id, EventType: eventType, AppID: sub.appID})
		}
	}
	return out
}

// Registry returns the bus's ContractRegistry (nil if constructed
// without one), for admin introspection endpoints.
func (b *Bus) Registry() *ContractRegistry {
	return b.registry
}
