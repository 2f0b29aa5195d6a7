package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Pipeline wires the producer task and the consumer pacing loop around a
// bounded queue. One Pipeline value is reusable; every Run creates a
// fresh queue, buffer, and result.
type Pipeline struct {
	cfg     Config
	logger  *zap.Logger
	metrics *Metrics
}

// NewPipeline creates a pipeline. logger and metrics may be nil.
func NewPipeline(cfg Config, logger *zap.Logger, metrics *Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg.normalized(), logger: logger, metrics: metrics}
}

// Run drains src through the bounded queue and paces the text out to
// sink. It blocks the caller (typically the render loop) until the
// stream terminates and always returns a non-nil Result carrying the
// partial text accumulated so far; the error return mirrors Result.Err.
//
// Exactly one terminal outcome is produced: success with metadata,
// success without metadata (source exhausted silently), or failure.
func (p *Pipeline) Run(ctx context.Context, src Source, sink Sink) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, p.cfg.OverallDeadline)
	defer cancel()

	q := newQueue(p.cfg.QueueCapacity)
	prod := newProducer(q, p.cfg.EnqueueTimeout, p.logger, p.metrics)
	prod.start(runCtx, src)

	c := &consumer{cfg: p.cfg, sink: sink, metrics: p.metrics}
	res := c.run(runCtx, q, prod)

	if dropped := q.droppedCount(); dropped > 0 {
		p.logger.Warn("stream finished with fragments lost to backpressure",
			zap.Int64("dropped", dropped))
	}
	p.metrics.outcome(statusOf(res.Err))
	return res, res.Err
}

// consumer is the pacing engine. It owns the expression buffer and the
// accumulated text exclusively; nothing here needs a lock.
type consumer struct {
	cfg        Config
	buf        mathBuffer
	full       strings.Builder
	displayed  strings.Builder
	sink       Sink
	metrics    *Metrics
	sinkFailed bool
}

func (c *consumer) run(ctx context.Context, q *queue, prod *producer) *Result {
	var (
		meta    map[string]any
		termErr error
	)

loop:
	for {
		if err := ctx.Err(); err != nil {
			termErr = terminalError(err)
			break
		}
		it, ok := q.dequeue(c.cfg.DequeuePollInterval)
		if !ok {
			// The deadline may have fired during the poll wait; without
			// this re-check an idle producer exit would read as implicit
			// success.
			if err := ctx.Err(); err != nil {
				termErr = terminalError(err)
				break
			}
			if prod.done() && q.len() == 0 {
				// Source exhausted without an explicit completion
				// marker: implicit success, no metadata.
				break
			}
			continue
		}
		switch it.kind {
		case fragmentItem:
			c.full.WriteString(it.text)
			if err := c.emit(ctx, it.text); err != nil {
				termErr = err
				break loop
			}
		case completionItem:
			meta = it.metadata
			break loop
		case failureItem:
			if cerr := ctx.Err(); cerr != nil && errors.Is(it.err, cerr) {
				// The source merely echoed the run's own cancellation.
				termErr = terminalError(cerr)
			} else {
				termErr = fmt.Errorf("%w: %w", ErrSourceFailure, it.err)
			}
			break loop
		}
	}

	// Flush whatever the expression buffer still withholds so trailing
	// content is shown even when the last delimiter never arrived. Skip
	// only when the sink itself is broken.
	if !c.sinkFailed {
		if err := c.flushPending(); err != nil && termErr == nil {
			termErr = err
		}
	}

	return aggregate(c.full.String(), c.displayed.String(), meta, termErr)
}

// emit routes one fragment through the expression buffer at the
// configured pacing unit.
func (c *consumer) emit(ctx context.Context, text string) error {
	switch c.cfg.Unit {
	case UnitInstant:
		out, ok := c.buf.feedChunk(text)
		if !ok {
			return nil
		}
		return c.display(out)

	case UnitWord:
		out, ok := c.buf.feedChunk(text)
		if !ok {
			return nil
		}
		return c.pace(ctx, splitPacingUnits(out))

	default: // UnitCharacter
		for _, r := range text {
			out, ok := c.buf.feedRune(r)
			if !ok {
				continue
			}
			// A released expression arrives here as one unit and gets
			// a single sink update, never split by pacing.
			if err := c.pace(ctx, []string{out}); err != nil {
				return err
			}
		}
		return nil
	}
}

// pace displays each unit with the configured delay in between,
// re-checking the deadline at every step so a long fragment cannot
// overrun the overall budget by more than one delay.
func (c *consumer) pace(ctx context.Context, units []string) error {
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return terminalError(err)
		}
		if err := c.display(u); err != nil {
			return err
		}
		if c.cfg.UnitDelay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return terminalError(ctx.Err())
		case <-time.After(c.cfg.UnitDelay):
		}
	}
	return nil
}

// display invokes the sink once with the full text so far and only then
// appends to the running displayed output, so DisplayedText records
// exactly what the sink accepted.
func (c *consumer) display(text string) error {
	if c.sink != nil {
		if err := c.sink(c.displayed.String() + text); err != nil {
			c.sinkFailed = true
			return fmt.Errorf("%w: %w", ErrSinkFailure, err)
		}
		c.metrics.sinkUpdate()
	}
	c.displayed.WriteString(text)
	return nil
}

func (c *consumer) flushPending() error {
	out := c.buf.flush()
	if out == "" {
		return nil
	}
	return c.display(out)
}

// aggregate is the single merge point between the accumulated text and
// the last-seen control state. Called exactly once per run.
func aggregate(full, displayed string, meta map[string]any, err error) *Result {
	return &Result{
		FullText:      full,
		DisplayedText: displayed,
		Metadata:      meta,
		Err:           err,
	}
}

// terminalError maps a context error to the pipeline taxonomy: hitting
// the overall deadline is a synthesized failure, external cancellation
// propagates unchanged.
func terminalError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrDeadlineExceeded
	}
	return err
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDeadlineExceeded):
		return "deadline_exceeded"
	case errors.Is(err, ErrSinkFailure):
		return "sink_failure"
	case errors.Is(err, ErrSourceFailure):
		return "source_failure"
	default:
		return "canceled"
	}
}
