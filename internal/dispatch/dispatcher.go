package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/straider911/9whales/internal/alerting"
	"github.com/straider911/9whales/internal/stats"
	"github.com/straider911/9whales/internal/webhook"
)

// Options tune the delivery worker pool.
type Options struct {
	Workers     int
	QueueSize   int
	RatePerSec  int
	SendTimeout time.Duration
}

// Dispatcher delivers alerts to the chat sink on background workers,
// decoupled from the request that produced them. Each task is attempted
// exactly once: no retry, no persistence. A full queue drops the task,
// which is acceptable under the relay's best-effort contract.
//
// With a nil notifier the dispatcher is a silent no-op.
type Dispatcher struct {
	notifier alerting.Notifier
	counters *stats.Counters
	opts     Options
	logger   zerolog.Logger
	limiter  *rate.Limiter

	mu        sync.Mutex
	accepting bool
	queue     chan webhook.Alert
	wg        sync.WaitGroup
}

// New constructs a dispatcher. counters may be nil.
func New(opts Options, notifier alerting.Notifier, counters *stats.Counters, logger zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 3
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}

	return &Dispatcher{
		notifier: notifier,
		counters: counters,
		opts:     opts,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		// Burst equals the per-second rate so short spikes don't stall workers.
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec),
	}
}

// Start launches the worker pool. Delivery tasks inherit ctx, not the
// request context: the request handler returns while sends are still in
// flight. Start is a no-op when the sink is unconfigured.
func (d *Dispatcher) Start(ctx context.Context) {
	if d.notifier == nil {
		d.logger.Warn().Msg("chat sink not configured; alerts will be discarded")
		return
	}

	d.mu.Lock()
	if d.queue != nil {
		d.mu.Unlock()
		return
	}
	d.queue = make(chan webhook.Alert, d.opts.QueueSize)
	d.accepting = true
	d.mu.Unlock()

	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Dispatch enqueues one alert for background delivery and returns
// immediately. It reports false when the task was discarded (sink
// unconfigured is reported as true: the no-op is intentional, not a
// drop).
func (d *Dispatcher) Dispatch(alert webhook.Alert) bool {
	if d.notifier == nil {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.accepting || d.queue == nil {
		return false
	}

	select {
	case d.queue <- alert:
		return true
	default:
		if d.counters != nil {
			d.counters.DroppedTask()
		}
		d.logger.Warn().Str("tx", alert.TxHash).Msg("delivery queue full, dropping alert")
		return false
	}
}

// Close stops accepting new tasks and waits for queued deliveries to
// drain. In-flight sends that outlive the run context are lost.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.queue == nil || !d.accepting {
		d.mu.Unlock()
		return
	}
	d.accepting = false
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case alert, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, alert)
		}
	}
}

// deliver attempts one send. Failures are logged and discarded; they
// never reach the request handler and never affect sibling tasks.
func (d *Dispatcher) deliver(ctx context.Context, alert webhook.Alert) {
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	err := d.notifier.Notify(sendCtx, alerting.Notification{
		Chain:    alert.Chain,
		TxHash:   alert.TxHash,
		From:     alert.From,
		To:       alert.To,
		USDValue: alert.USDValue,
	})
	if d.counters != nil {
		d.counters.Sent(err)
	}
	if err != nil {
		d.logger.Error().Err(err).
			Str("chain", alert.Chain).
			Str("tx", alert.TxHash).
			Msg("failed to deliver alert")
	}
}
