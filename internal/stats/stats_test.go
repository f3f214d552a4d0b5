package stats

import (
	"errors"
	"sync"
	"testing"
)

func TestCountersSnapshot(t *testing.T) {
	c := New()
	c.Request()
	c.Request()
	c.Unauthorized()
	c.MalformedBody()
	c.Alerts(3)
	c.DroppedTask()
	c.Sent(nil)
	c.Sent(errors.New("boom"))

	snap := c.Snapshot()
	if snap.Requests != 2 || snap.Unauthorized != 1 || snap.Malformed != 1 {
		t.Fatalf("request counters wrong: %+v", snap)
	}
	if snap.Alerts != 3 || snap.Dropped != 1 {
		t.Fatalf("alert counters wrong: %+v", snap)
	}
	if snap.SendsOK != 1 || snap.SendsFailed != 1 {
		t.Fatalf("send counters wrong: %+v", snap)
	}
}

func TestCountersConcurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Request()
			c.Alerts(1)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.Requests != 50 || snap.Alerts != 50 {
		t.Fatalf("expected 50/50, got %d/%d", snap.Requests, snap.Alerts)
	}
}
