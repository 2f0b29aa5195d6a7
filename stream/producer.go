package stream

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// producer drains the external fragment source as fast as it yields and
// pushes items onto the bounded queue. It runs as a single background
// goroutine and never blocks its starter. The finished flag is the only
// state it shares outside the queue.
type producer struct {
	q              *queue
	enqueueTimeout time.Duration
	logger         *zap.Logger
	metrics        *Metrics
	finished       atomic.Bool
}

func newProducer(q *queue, enqueueTimeout time.Duration, logger *zap.Logger, metrics *Metrics) *producer {
	return &producer{
		q:              q,
		enqueueTimeout: enqueueTimeout,
		logger:         logger,
		metrics:        metrics,
	}
}

// start launches the drain goroutine. Completion and failure from the
// source are translated into control signals on the queue; exhaustion
// without an explicit marker (io.EOF) just sets the finished flag.
func (p *producer) start(ctx context.Context, src Source) {
	go func() {
		defer p.finished.Store(true)
		for {
			if ctx.Err() != nil {
				return
			}
			ev, err := src.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if ctx.Err() != nil {
					// Run cancellation, not a source fault: the consumer
					// classifies it from the context itself.
					return
				}
				p.q.send(ctx, failure(err))
				return
			}
			if ev.Text != "" {
				if p.q.enqueue(fragment(ev.Text), p.enqueueTimeout) {
					p.metrics.fragmentEnqueued()
				} else {
					// Lossy backpressure: the fragment is gone for good.
					p.metrics.fragmentDropped()
					p.logger.Warn("fragment queue full, dropping fragment",
						zap.Int("fragment_len", len(ev.Text)),
						zap.Int64("dropped_total", p.q.droppedCount()))
				}
			}
			if ev.Done {
				// Completion is authoritative: stop reading the source.
				p.q.send(ctx, completion(ev.Metadata))
				return
			}
		}
	}()
}

// done reports whether the producer goroutine has exited. Combined with
// an empty queue this tells the consumer there is nothing left to wait for.
func (p *producer) done() bool { return p.finished.Load() }
