package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := New(nil)

	var mu sync.Mutex
	var received map[string]any
	done := make(chan struct{})

	bus.Subscribe("widget.created", "app-a", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		mu.Lock()
		received = data
		mu.Unlock()
		close(done)
		return nil, nil
	})

	bus.Publish(context.Background(), "widget.created", map[string]any{"id": "w-1"}, "app-a")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "w-1", received["id"])
}

func TestPublishRelaysToSSEChannelWithoutRecursion(t *testing.T) {
	bus := New(nil)

	relayCh := make(chan map[string]any, 4)
	bus.Subscribe(sseRelayEventType, "", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		relayCh <- data
		return nil, nil
	})

	bus.Publish(context.Background(), "widget.created", map[string]any{"id": "w-1"}, "app-a")

	select {
	case payload := <-relayCh:
		assert.Equal(t, "widget.created", payload["event_type"])
		assert.Equal(t, "app-a", payload["source_app"])
		assert.Equal(t, "w-1", payload["id"])
	case <-time.After(time.Second):
		t.Fatal("relay handler never invoked")
	}

	select {
	case <-relayCh:
		t.Fatal("relay channel republished itself, infinite recursion")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDropsOnContractValidationFailure(t *testing.T) {
	registry := NewContractRegistry()
	RegisterDeclaredContracts(registry, "promptforge")
	bus := New(registry)

	done := make(chan struct{}, 1)
	bus.Subscribe("promptforge:optimization.started", "promptforge", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		done <- struct{}{}
		return nil, nil
	})

	bus.Publish(context.Background(), "promptforge:optimization.started", map[string]any{"project": "missing-required-fields"}, "promptforge")

	select {
	case <-done:
		t.Fatal("handler invoked despite invalid payload")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishDeliversWhenContractSatisfied(t *testing.T) {
	registry := NewContractRegistry()
	RegisterDeclaredContracts(registry, "promptforge")
	bus := New(registry)

	done := make(chan struct{}, 1)
	bus.Subscribe("promptforge:optimization.started", "promptforge", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		done <- struct{}{}
		return nil, nil
	})

	bus.Publish(context.Background(), "promptforge:optimization.started", map[string]any{
		"optimization_id": "opt-1",
		"raw_prompt":      "do the thing",
	}, "promptforge")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never invoked for valid payload")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New(nil)

	called := make(chan struct{}, 1)
	id := bus.Subscribe("thing", "app-a", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		called <- struct{}{}
		return nil, nil
	})
	bus.Unsubscribe(id)

	bus.Publish(context.Background(), "thing", map[string]any{}, "app-a")

	select {
	case <-called:
		t.Fatal("handler invoked after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	bus := New(nil)

	bus.Subscribe("thing", "app-a", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), "thing", map[string]any{}, "app-a")
		time.Sleep(50 * time.Millisecond)
	})
}

func TestRequestReturnsHandlerResult(t *testing.T) {
	bus := New(nil)

	bus.Subscribe("compute", "app-a", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		return map[string]any{"answer": 42}, nil
	})

	result, err := bus.Request(context.Background(), "compute", nil, "app-a", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, result["answer"])
}

func TestRequestWrapsNonMapResult(t *testing.T) {
	bus := New(nil)

	bus.Subscribe("compute", "app-a", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		return 42, nil
	})

	result, err := bus.Request(context.Background(), "compute", nil, "app-a", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, result["result"])
}

func TestRequestNoHandlerRegistered(t *testing.T) {
	bus := New(nil)

	_, err := bus.Request(context.Background(), "nobody-home", nil, "app-a", time.Second)
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestRequestTimesOut(t *testing.T) {
	bus := New(nil)

	bus.Subscribe("slow", "app-a", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := bus.Request(context.Background(), "slow", nil, "app-a", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRequestHandlerPanicReturnsError(t *testing.T) {
	bus := New(nil)

	bus.Subscribe("boom", "app-a", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) {
		panic("kaboom")
	})

	_, err := bus.Request(context.Background(), "boom", nil, "app-a", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestListSubscriptionsReflectsRegistrations(t *testing.T) {
	bus := New(nil)

	id1 := bus.Subscribe("widget.created", "app-a", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) { return nil, nil })
	id2 := bus.Subscribe("widget.deleted", "app-b", func(ctx context.Context, data map[string]any, sourceApp string) (any, error) { return nil, nil })

	subs := bus.ListSubscriptions()
	require.Len(t, subs, 2)

	ids := []string{subs[0].ID, subs[1].ID}
	assert.Contains(t, ids, id1)
	assert.Contains(t, ids, id2)
}
