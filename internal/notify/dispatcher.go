package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const deliveryTimeout = 30 * time.Second

// Sink receives events off the request path: a Deliverer sends the emails
// itself, a QueuePublisher hands them to asynq.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Dispatcher moves events to a Sink on a bounded queue drained by a worker pool
type Dispatcher struct {
	sink    Sink
	queue   chan Event
	workers int
	wg      sync.WaitGroup
}

func NewDispatcher(sink Sink, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan Event, queueSize),
		workers: workers,
	}
}

// Notify enqueues the event without waiting. A full queue drops the event.
func (d *Dispatcher) Notify(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. They stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	logger := log.With().Str("component", "notify_dispatcher").Logger()
	logger.Info().Int("workers", d.workers).Msg("starting notification dispatcher")

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run(ctx)
		}()
	}
}

// Wait blocks until every worker has exited
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	logger := log.With().Str("component", "notify_dispatcher").Logger()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("notification worker stopping")
			return
		case event := <-d.queue:
			// delivery outlives the request that produced the event
			deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
			if err := d.sink.Deliver(deliverCtx, event); err != nil {
				logger.Error().Err(err).Str("event", string(event.Type)).Msg("failed to deliver notification")
			}
			cancel()
		}
	}
}
