package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/merchant-onboarding/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.SubscribeNamed(event.TypeStepCommitted, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeStepCommitted, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})
	d.SubscribeNamed(AllEvents, "wildcard", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "wildcard")
		return nil
	})

	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeStepCommitted, "m-1", nil)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := []string{"first", "second", "wildcard"}
	if len(order) != len(want) {
		t.Fatalf("handlers ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestDispatch_StopsOnFirstError(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	sentinel := errors.New("boom")
	called := false

	d.SubscribeNamed(event.TypeMerchantCreated, "failing", func(ctx context.Context, evt *event.Event) error {
		return sentinel
	})
	d.SubscribeNamed(event.TypeMerchantCreated, "after", func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeMerchantCreated, "m-1", nil))
	if !errors.Is(err, sentinel) {
		t.Errorf("Dispatch() error = %v, want %v", err, sentinel)
	}
	if called {
		t.Error("handler after a failure should not run")
	}
	if logger.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d, want 1", logger.ErrorCount())
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeStatusChanged, "m-1", nil))
	if err == nil {
		t.Fatal("Dispatch() should surface the recovered panic as an error")
	}
}

func TestDispatchAsync_DetachesFromCallerContext(t *testing.T) {
	d := NewDispatcher()
	var sawCanceled atomic.Bool
	release := make(chan struct{})

	d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
		<-release
		if ctx.Err() != nil {
			sawCanceled.Store(true)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.DispatchAsync(ctx, event.NewEvent(event.TypeStatusChanged, "m-1", nil))
	cancel()
	close(release)

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if sawCanceled.Load() {
		t.Error("async handler should not observe caller cancellation")
	}
}

func TestDispatchAsync_CloseWaitsForHandlers(t *testing.T) {
	d := NewDispatcher()
	var count atomic.Int32

	for i := 0; i < 3; i++ {
		d.Subscribe(event.TypeMerchantSubmitted, func(ctx context.Context, evt *event.Event) error {
			time.Sleep(10 * time.Millisecond)
			count.Add(1)
			return nil
		})
	}

	d.DispatchAsync(context.Background(), event.NewEvent(event.TypeMerchantSubmitted, "m-1", nil))

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := count.Load(); got != 3 {
		t.Errorf("handlers completed = %d, want 3", got)
	}
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}
	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeMerchantCreated, "m-1", nil)); err == nil {
		t.Error("Dispatch() after Close() should fail")
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	d.SubscribeNamed(event.TypeLeadNoteAdded, "a", func(ctx context.Context, evt *event.Event) error { return nil })
	d.SubscribeNamed(event.TypeLeadNoteAdded, "b", func(ctx context.Context, evt *event.Event) error { return nil })

	d.Unsubscribe(event.TypeLeadNoteAdded, "a")

	handlers := d.ListHandlers(event.TypeLeadNoteAdded)
	if len(handlers) != 1 || handlers[0].Name != "b" {
		t.Errorf("ListHandlers() = %+v, want only b", handlers)
	}
	if handlers[0].Handler != nil {
		t.Error("ListHandlers() should not expose handler funcs")
	}
}

func TestStats_CountsOutcomes(t *testing.T) {
	d := NewDispatcher()
	d.SubscribeNamed(event.TypeMerchantCreated, "ok", func(ctx context.Context, evt *event.Event) error { return nil })
	d.SubscribeNamed(AllEvents, "broken", func(ctx context.Context, evt *event.Event) error { return errors.New("down") })

	_ = d.Dispatch(context.Background(), event.NewEvent(event.TypeMerchantCreated, "m-1", nil))
	d.DispatchAsync(context.Background(), event.NewEvent(event.TypeMerchantCreated, "m-2", nil))
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	stats := d.Stats()
	if stats.Delivered != 2 || stats.Failed != 2 || stats.InFlight != 0 {
		t.Errorf("Stats() = %+v, want 2 delivered, 2 failed, none in flight", stats)
	}
	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeMerchantCreated, "m-3", nil)); !errors.Is(err, ErrClosed) {
		t.Errorf("Dispatch() after Close() = %v, want ErrClosed", err)
	}
}

func TestSubscribe_GeneratedNamesStayUnique(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, evt *event.Event) error { return nil }

	d.Subscribe(event.TypeDocumentUploaded, noop)
	d.Subscribe(event.TypeDocumentUploaded, noop)
	d.Unsubscribe(event.TypeDocumentUploaded, "handler-0")
	d.Subscribe(event.TypeDocumentUploaded, noop)

	handlers := d.ListHandlers(event.TypeDocumentUploaded)
	if len(handlers) != 2 || handlers[0].Name != "handler-1" || handlers[1].Name != "handler-2" {
		t.Errorf("ListHandlers() = %+v, want handler-1 and handler-2", handlers)
	}
}
