package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koperasidigital/simpanpinjam/internal/domain/event"
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

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func TestSubscribe(t *testing.T) {
	t.Run("subscribes handler", func(t *testing.T) {
		d := New()
		called := false

		d.Subscribe(event.TypeRequestSubmitted, "audit", func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		evt := event.New(event.TypeRequestSubmitted, 1, "LN-202601-0001", nil)
		if err := d.Dispatch(context.Background(), evt); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if !called {
			t.Error("expected handler to be called")
		}
	})

	t.Run("registration is logged", func(t *testing.T) {
		logger := &mockLogger{}
		d := New(WithLogger(logger))

		d.Subscribe(event.TypeStatusChanged, "notifier", func(ctx context.Context, evt *event.Event) error {
			return nil
		})

		if !logger.HasInfo("Handler registered") {
			t.Error("expected registration to be logged")
		}
	})

	t.Run("multiple handlers on same event type", func(t *testing.T) {
		d := New()
		called1, called2 := false, false

		d.Subscribe(event.TypeStatusChanged, "first", func(ctx context.Context, evt *event.Event) error {
			called1 = true
			return nil
		})
		d.Subscribe(event.TypeStatusChanged, "second", func(ctx context.Context, evt *event.Event) error {
			called2 = true
			return nil
		})

		evt := event.New(event.TypeStatusChanged, 1, "LN-202601-0001", nil)
		if err := d.Dispatch(context.Background(), evt); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if !called1 || !called2 {
			t.Error("expected both handlers to be called")
		}
	})
}

func TestDispatch(t *testing.T) {
	t.Run("handlers run in registration order", func(t *testing.T) {
		d := New()
		var order []int
		var mu sync.Mutex

		d.Subscribe(event.TypeStatusChanged, "first", func(ctx context.Context, evt *event.Event) error {
			mu.Lock()
			order = append(order, 1)
			mu.Unlock()
			return nil
		})
		d.Subscribe(event.TypeStatusChanged, "second", func(ctx context.Context, evt *event.Event) error {
			mu.Lock()
			order = append(order, 2)
			mu.Unlock()
			return nil
		})

		evt := event.New(event.TypeStatusChanged, 1, "DP-202601-0001", nil)
		if err := d.Dispatch(context.Background(), evt); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("expected handlers to run in order [1, 2], got %v", order)
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		d := New()
		expectedErr := errors.New("handler error")
		secondCalled := false

		d.Subscribe(event.TypeStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeStatusChanged, "after", func(ctx context.Context, evt *event.Event) error {
			secondCalled = true
			return nil
		})

		evt := event.New(event.TypeStatusChanged, 1, "DP-202601-0001", nil)
		err := d.Dispatch(context.Background(), evt)
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected wrapped handler error, got %v", err)
		}
		if secondCalled {
			t.Error("expected dispatch to stop after the failing handler")
		}
	})

	t.Run("converts handler panic into error", func(t *testing.T) {
		d := New()
		d.Subscribe(event.TypeDepositMatured, "panicky", func(ctx context.Context, evt *event.Event) error {
			panic("boom")
		})

		evt := event.New(event.TypeDepositMatured, 1, "DP-202601-0001", nil)
		if err := d.Dispatch(context.Background(), evt); err == nil {
			t.Error("expected an error from a panicking handler")
		}
	})

	t.Run("no handlers is a no-op", func(t *testing.T) {
		d := New()
		evt := event.New(event.TypeRequestRevised, 1, "LN-202601-0001", nil)
		if err := d.Dispatch(context.Background(), evt); err != nil {
			t.Errorf("dispatch with no handlers failed: %v", err)
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("close waits for in-flight handlers", func(t *testing.T) {
		d := New()
		var completed atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeStatusChanged, fmt.Sprintf("slow-%d", i), func(ctx context.Context, evt *event.Event) error {
				time.Sleep(20 * time.Millisecond)
				completed.Add(1)
				return nil
			})
		}

		evt := event.New(event.TypeStatusChanged, 1, "WD-202601-0001", nil)
		d.DispatchAsync(context.Background(), evt)

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if got := completed.Load(); got != 3 {
			t.Errorf("expected 3 handlers to complete before close returned, got %d", got)
		}
	})

	t.Run("async handler errors are logged, not returned", func(t *testing.T) {
		logger := &mockLogger{}
		d := New(WithLogger(logger))

		d.Subscribe(event.TypeStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
			return errors.New("send failed")
		})

		evt := event.New(event.TypeStatusChanged, 1, "WD-202601-0001", nil)
		d.DispatchAsync(context.Background(), evt)
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if logger.ErrorCount() != 1 {
			t.Errorf("expected 1 logged error, got %d", logger.ErrorCount())
		}
	})
}

func TestClose(t *testing.T) {
	t.Run("dispatch after close fails", func(t *testing.T) {
		d := New()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		evt := event.New(event.TypeStatusChanged, 1, "LN-202601-0001", nil)
		if err := d.Dispatch(context.Background(), evt); err == nil {
			t.Error("expected dispatch on a closed dispatcher to fail")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		d := New()
		if err := d.Close(); err != nil {
			t.Fatalf("first close failed: %v", err)
		}
		if err := d.Close(); err != nil {
			t.Fatalf("second close failed: %v", err)
		}
	})
}
