package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/iotgw/internal/device"
	"github.com/nerrad567/iotgw/internal/logging"
	"github.com/nerrad567/iotgw/internal/rules"
)

func newTestEngine() *Engine {
	return New(Deps{
		Logger:   logging.New(discardSink{}, logging.LevelInfo),
		Registry: device.NewRegistry(),
		Rules:    rules.NewEngine(),
	})
}

type discardSink struct{}

func (discardSink) Write(string) error { return nil }
func (discardSink) Flush() error       { return nil }
func (discardSink) Close() error       { return nil }

func TestSubmitRunsOnOwnerGoroutine(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)

	done := make(chan struct{})
	e.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submitted closure never ran")
	}
}

func TestCallReturnsResult(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)

	got := e.Call(func() any { return 42 })
	if got.(int) != 42 {
		t.Fatalf("Call() = %v, want 42", got)
	}
}

func TestCallOrderingPreserved(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		e.Submit(func() { order = append(order, i) })
	}
	e.Call(func() any { return nil })

	if len(order) != 5 {
		t.Fatalf("order = %v, want 5 entries", order)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, not sequential", order)
		}
	}
}

func TestStopAfterContextCancelUnblocksPendingCalls(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	cancel()

	// Give the owner goroutine a moment to observe cancellation.
	time.Sleep(50 * time.Millisecond)

	got := e.Call(func() any { return "unreachable" })
	if got != nil {
		t.Fatalf("Call() after shutdown = %v, want nil", got)
	}
}
