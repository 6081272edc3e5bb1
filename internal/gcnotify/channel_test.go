package gcnotify_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"veld/internal/gcnotify"
	"veld/internal/logging"
)

type fakeNotifier struct {
	mu     sync.Mutex
	causes []string
	err    error
}

func (f *fakeNotifier) EventDelivered(context.Context, string, string) error { return nil }
func (f *fakeNotifier) SensorAlert(context.Context, string, uint64, uint64) error {
	return nil
}
func (f *fakeNotifier) Test(context.Context) error { return nil }

func (f *fakeNotifier) GCCycle(_ context.Context, cause string, _ int64, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.causes = append(f.causes, cause)
	return nil
}

func (f *fakeNotifier) delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.causes...)
}

func TestPublishRaisesPendingWorkOnce(t *testing.T) {
	notifier := &fakeNotifier{}
	ch := gcnotify.New(8, notifier, logging.NewNop())

	var wakes atomic.Int64
	ch.SetWaker(func() { wakes.Add(1) })

	ch.Publish(gcnotify.Record{Cause: "allocation-failure"})
	ch.Publish(gcnotify.Record{Cause: "explicit"})
	if !ch.HasPendingWork() {
		t.Fatal("pending work not raised after publish")
	}
	if got := wakes.Load(); got != 1 {
		t.Fatalf("waker fired %d times, want 1", got)
	}
}

func TestPerformPendingWorkDrainsInOrder(t *testing.T) {
	notifier := &fakeNotifier{}
	ch := gcnotify.New(8, notifier, logging.NewNop())
	ch.SetWaker(func() {})

	ch.Publish(gcnotify.Record{Cause: "first"})
	ch.Publish(gcnotify.Record{Cause: "second"})
	ch.Publish(gcnotify.Record{Cause: "third"})

	if err := ch.PerformPendingWork(context.Background()); err != nil {
		t.Fatalf("PerformPendingWork: %v", err)
	}
	got := notifier.delivered()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("delivered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivered %v, want %v", got, want)
		}
	}
	if ch.Delivered() != 3 {
		t.Fatalf("Delivered = %d, want 3", ch.Delivered())
	}
	if ch.HasPendingWork() {
		t.Fatal("pending work still raised after drain")
	}
}

func TestBacklogDropsOldestWhenFull(t *testing.T) {
	notifier := &fakeNotifier{}
	ch := gcnotify.New(2, notifier, logging.NewNop())
	ch.SetWaker(func() {})

	ch.Publish(gcnotify.Record{Cause: "oldest"})
	ch.Publish(gcnotify.Record{Cause: "middle"})
	ch.Publish(gcnotify.Record{Cause: "newest"})

	if ch.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", ch.Dropped())
	}
	if err := ch.PerformPendingWork(context.Background()); err != nil {
		t.Fatalf("PerformPendingWork: %v", err)
	}
	got := notifier.delivered()
	if len(got) != 2 || got[0] != "middle" || got[1] != "newest" {
		t.Fatalf("delivered %v, want [middle newest]", got)
	}
}

func TestDeliveryErrorPropagates(t *testing.T) {
	boom := errors.New("webhook down")
	notifier := &fakeNotifier{err: boom}
	ch := gcnotify.New(8, notifier, logging.NewNop())
	ch.SetWaker(func() {})

	ch.Publish(gcnotify.Record{Cause: "doomed"})
	if err := ch.PerformPendingWork(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("PerformPendingWork error = %v, want %v", err, boom)
	}
	if ch.Delivered() != 0 {
		t.Fatalf("Delivered = %d after failed delivery", ch.Delivered())
	}
}
