package stats

import (
	"sync/atomic"
	"time"
)

// Counters accumulate relay activity in memory only; a restart resets
// them. All methods are safe for concurrent use.
type Counters struct {
	startedAt time.Time

	requests     atomic.Int64
	unauthorized atomic.Int64
	malformed    atomic.Int64
	alerts       atomic.Int64
	sendsOK      atomic.Int64
	sendsFailed  atomic.Int64
	dropped      atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	StartedAt    time.Time
	Requests     int64
	Unauthorized int64
	Malformed    int64
	Alerts       int64
	SendsOK      int64
	SendsFailed  int64
	Dropped      int64
}

// New returns zeroed counters anchored at now.
func New() *Counters {
	return &Counters{startedAt: time.Now().UTC()}
}

func (c *Counters) Request()       { c.requests.Add(1) }
func (c *Counters) Unauthorized()  { c.unauthorized.Add(1) }
func (c *Counters) MalformedBody() { c.malformed.Add(1) }
func (c *Counters) Alerts(n int)   { c.alerts.Add(int64(n)) }
func (c *Counters) DroppedTask()   { c.dropped.Add(1) }

// Sent records the outcome of one delivery attempt.
func (c *Counters) Sent(err error) {
	if err != nil {
		c.sendsFailed.Add(1)
		return
	}
	c.sendsOK.Add(1)
}

// Snapshot copies the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		StartedAt:    c.startedAt,
		Requests:     c.requests.Load(),
		Unauthorized: c.unauthorized.Load(),
		Malformed:    c.malformed.Load(),
		Alerts:       c.alerts.Load(),
		SendsOK:      c.sendsOK.Load(),
		SendsFailed:  c.sendsFailed.Load(),
		Dropped:      c.dropped.Load(),
	}
}

// Uptime reports time elapsed since process start.
func (c *Counters) Uptime() time.Duration {
	return time.Since(c.startedAt)
}
