package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/candorlabs/candor/pkg/plugin"
	"go.uber.org/zap"
)

func TestBusPublishDeliversToTopicSubscribers(t *testing.T) {
	b := NewBus(zap.NewNop())
	var got []string
	b.Subscribe("face.score", func(ctx context.Context, e plugin.Event) {
		got = append(got, e.Topic)
	})
	b.Subscribe("voice.score", func(ctx context.Context, e plugin.Event) {
		t.Error("handler for unrelated topic invoked")
	})

	if err := b.Publish(context.Background(), plugin.Event{Topic: "face.score"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 || got[0] != "face.score" {
		t.Errorf("delivered = %v, want [face.score]", got)
	}
}

func TestBusSubscribeAll(t *testing.T) {
	b := NewBus(zap.NewNop())
	var count int
	b.SubscribeAll(func(ctx context.Context, e plugin.Event) { count++ })

	b.Publish(context.Background(), plugin.Event{Topic: "a"})
	b.Publish(context.Background(), plugin.Event{Topic: "b"})
	if count != 2 {
		t.Errorf("wildcard handler called %d times, want 2", count)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus(zap.NewNop())
	var count int
	unsub := b.Subscribe("t", func(ctx context.Context, e plugin.Event) { count++ })

	b.Publish(context.Background(), plugin.Event{Topic: "t"})
	unsub()
	b.Publish(context.Background(), plugin.Event{Topic: "t"})
	if count != 1 {
		t.Errorf("handler called %d times after unsubscribe, want 1", count)
	}
}

func TestBusPanickingHandlerDoesNotStopDispatch(t *testing.T) {
	b := NewBus(zap.NewNop())
	b.Subscribe("t", func(ctx context.Context, e plugin.Event) { panic("boom") })
	var reached bool
	b.Subscribe("t", func(ctx context.Context, e plugin.Event) { reached = true })

	if err := b.Publish(context.Background(), plugin.Event{Topic: "t"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !reached {
		t.Error("second handler not reached after panic in first")
	}
}

func TestBusPublishAsync(t *testing.T) {
	b := NewBus(zap.NewNop())
	var wg sync.WaitGroup
	wg.Add(1)
	b.Subscribe("t", func(ctx context.Context, e plugin.Event) { wg.Done() })

	b.PublishAsync(context.Background(), plugin.Event{Topic: "t"})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler never invoked")
	}
}

func TestEmitStampsSourceAndTimestamp(t *testing.T) {
	b := NewBus(zap.NewNop())
	var got plugin.Event
	b.Subscribe("pulse.score", func(ctx context.Context, e plugin.Event) { got = e })

	if err := Emit(context.Background(), b, "pulse.score", "pulse", 42); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if got.Source != "pulse" {
		t.Errorf("Source = %q, want %q", got.Source, "pulse")
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp not stamped")
	}
	if got.Payload != 42 {
		t.Errorf("Payload = %v, want 42", got.Payload)
	}
}
