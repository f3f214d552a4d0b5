package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/straider911/9whales/internal/alerting"
	"github.com/straider911/9whales/internal/stats"
	"github.com/straider911/9whales/internal/webhook"
)

type fakeNotifier struct {
	mu    sync.Mutex
	notes []alerting.Notification
	fail  func(note alerting.Notification) error
	gate  chan struct{} // when non-nil, Notify blocks until the gate closes
}

func (f *fakeNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.notes = append(f.notes, note)
	f.mu.Unlock()
	if f.fail != nil {
		return f.fail(note)
	}
	return nil
}

func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	return nil
}

func (f *fakeNotifier) delivered() []alerting.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]alerting.Notification, len(f.notes))
	copy(out, f.notes)
	return out
}

func testAlert(tx string, usd int64) webhook.Alert {
	return webhook.Alert{Chain: "eth", TxHash: tx, USDValue: decimal.NewFromInt(usd)}
}

func fastOptions() Options {
	return Options{Workers: 2, QueueSize: 16, RatePerSec: 1000, SendTimeout: time.Second}
}

func TestDispatchDeliversAll(t *testing.T) {
	notifier := &fakeNotifier{}
	d := New(fastOptions(), notifier, stats.New(), zerolog.Nop())
	d.Start(context.Background())

	for _, tx := range []string{"0x1", "0x2", "0x3"} {
		if !d.Dispatch(testAlert(tx, 200000)) {
			t.Fatalf("dispatch of %s should be accepted", tx)
		}
	}
	d.Close()

	notes := notifier.delivered()
	if len(notes) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(notes))
	}
}

func TestDispatchFailureIsolation(t *testing.T) {
	counters := stats.New()
	notifier := &fakeNotifier{fail: func(note alerting.Notification) error {
		if note.TxHash == "0xbad" {
			return errors.New("sink rejected message")
		}
		return nil
	}}
	d := New(fastOptions(), notifier, counters, zerolog.Nop())
	d.Start(context.Background())

	d.Dispatch(testAlert("0x1", 200000))
	d.Dispatch(testAlert("0xbad", 300000))
	d.Dispatch(testAlert("0x2", 400000))
	d.Close()

	if len(notifier.delivered()) != 3 {
		t.Fatal("a failing delivery must not abort sibling tasks")
	}
	snap := counters.Snapshot()
	if snap.SendsFailed != 1 || snap.SendsOK != 2 {
		t.Fatalf("expected 1 failed / 2 ok sends, got %d / %d", snap.SendsFailed, snap.SendsOK)
	}
}

func TestDispatchUnconfiguredSink(t *testing.T) {
	d := New(fastOptions(), nil, stats.New(), zerolog.Nop())
	d.Start(context.Background())

	if !d.Dispatch(testAlert("0x1", 200000)) {
		t.Fatal("unconfigured sink must be a silent no-op, not a drop")
	}
	d.Close()
}

func TestDispatchQueueFullDrops(t *testing.T) {
	gate := make(chan struct{})
	notifier := &fakeNotifier{gate: gate}
	counters := stats.New()
	d := New(Options{Workers: 1, QueueSize: 1, RatePerSec: 1000, SendTimeout: time.Second}, notifier, counters, zerolog.Nop())
	d.Start(context.Background())

	// First task occupies the single worker (blocked on the gate).
	if !d.Dispatch(testAlert("0x1", 200000)) {
		t.Fatal("first dispatch should be accepted")
	}
	waitForBlockedWorker(t, d)

	// Second task fills the queue, third must be dropped.
	if !d.Dispatch(testAlert("0x2", 200000)) {
		t.Fatal("second dispatch should fit in the queue")
	}
	if d.Dispatch(testAlert("0x3", 200000)) {
		t.Fatal("third dispatch should be dropped when the queue is full")
	}

	close(gate)
	d.Close()

	if counters.Snapshot().Dropped != 1 {
		t.Fatalf("expected 1 dropped task, got %d", counters.Snapshot().Dropped)
	}
	if len(notifier.delivered()) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(notifier.delivered()))
	}
}

func TestDispatchAfterClose(t *testing.T) {
	d := New(fastOptions(), &fakeNotifier{}, stats.New(), zerolog.Nop())
	d.Start(context.Background())
	d.Close()

	if d.Dispatch(testAlert("0x1", 200000)) {
		t.Fatal("dispatch after close must report the task as discarded")
	}
}

// waitForBlockedWorker spins until the single worker has pulled the
// first task off the queue.
func waitForBlockedWorker(t *testing.T, d *Dispatcher) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		empty := len(d.queue) == 0
		d.mu.Unlock()
		if empty {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("worker never picked up the first task")
}
