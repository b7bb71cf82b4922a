package notify

import (
	"context"
	"log/slog"

	"github.com/swimref/roster/internal/application"
)

// DefaultQueueSize bounds the number of pending batches.
const DefaultQueueSize = 256

type batch struct {
	ctx        context.Context
	deliveries []application.Delivery
}

// Dispatcher decouples the roster store from delivery. Publish enqueues and
// returns; a single worker started by Run hands each batch to every sink.
type Dispatcher struct {
	sinks  []Sink
	queue  chan batch
	logger *slog.Logger
}

// NewDispatcher returns a dispatcher with a queue of size batches.
func NewDispatcher(size int, logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sinks:  sinks,
		queue:  make(chan batch, size),
		logger: logger.With("component", "notify.Dispatcher"),
	}
}

// Publish implements application.NotificationPublisher. The batch is dropped
// with a warning when the queue is full.
func (d *Dispatcher) Publish(ctx context.Context, deliveries []application.Delivery) {
	if len(deliveries) == 0 {
		return
	}
	select {
	case d.queue <- batch{ctx: context.WithoutCancel(ctx), deliveries: deliveries}:
	default:
		d.logger.WarnContext(ctx, "notification queue full, dropping batch", "count", len(deliveries))
	}
}

// Run processes batches until ctx is cancelled, then drains what is already
// queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case b := <-d.queue:
			d.dispatch(b)
		case <-ctx.Done():
			for {
				select {
				case b := <-d.queue:
					d.dispatch(b)
				default:
					return nil
				}
			}
		}
	}
}

func (d *Dispatcher) dispatch(b batch) {
	for _, sink := range d.sinks {
		if err := sink.Deliver(b.ctx, b.deliveries); err != nil {
			d.logger.WarnContext(b.ctx, "notification delivery failed", "count", len(b.deliveries), "error", err)
		}
	}
}
