package stream

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDeadlineExceeded is recorded when the pipeline runs past its
	// overall deadline before the source produced a terminal signal.
	ErrDeadlineExceeded = errors.New("stream deadline exceeded")

	// ErrSourceFailure wraps an error reported by the fragment source.
	ErrSourceFailure = errors.New("stream source failed")

	// ErrSinkFailure wraps an error returned by the display sink. A sink
	// failure is fatal to the current stream.
	ErrSinkFailure = errors.New("display sink failed")
)

// Unit is the granularity at which the consumer releases text to the sink.
type Unit string

const (
	UnitCharacter Unit = "character" // one rune per sink update
	UnitWord      Unit = "word"      // one whitespace-delimited token per update
	UnitInstant   Unit = "instant"   // whole fragments, no pacing delay
)

// Config configures one pipeline invocation. The zero value is usable;
// unset fields fall back to the defaults below.
type Config struct {
	// Unit selects the pacing granularity. Defaults to UnitCharacter.
	Unit Unit `yaml:"unit" json:"unit"`

	// UnitDelay is the pause between paced emissions. Zero disables the
	// pause without changing the granularity.
	UnitDelay time.Duration `yaml:"unit_delay" json:"unit_delay"`

	// QueueCapacity bounds the producer/consumer channel.
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"`

	// EnqueueTimeout is how long the producer waits on a full queue
	// before dropping a fragment. Zero means drop immediately.
	EnqueueTimeout time.Duration `yaml:"enqueue_timeout" json:"enqueue_timeout"`

	// DequeuePollInterval bounds each consumer wait so the loop can
	// re-check the deadline and the producer-finished flag.
	DequeuePollInterval time.Duration `yaml:"dequeue_poll_interval" json:"dequeue_poll_interval"`

	// OverallDeadline is the hard wall-clock budget for the whole stream.
	OverallDeadline time.Duration `yaml:"overall_deadline" json:"overall_deadline"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Unit:                UnitCharacter,
		UnitDelay:           20 * time.Millisecond,
		QueueCapacity:       100,
		EnqueueTimeout:      time.Second,
		DequeuePollInterval: 500 * time.Millisecond,
		OverallDeadline:     300 * time.Second,
	}
}

// normalized fills structurally invalid fields with defaults. UnitDelay
// and EnqueueTimeout stay as given: zero is a meaningful setting for both.
func (c Config) normalized() Config {
	switch c.Unit {
	case UnitCharacter, UnitWord, UnitInstant:
	default:
		c.Unit = UnitCharacter
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 100
	}
	if c.DequeuePollInterval <= 0 {
		c.DequeuePollInterval = 500 * time.Millisecond
	}
	if c.OverallDeadline <= 0 {
		c.OverallDeadline = 300 * time.Second
	}
	return c
}

// SourceEvent is one record pulled from the upstream fragment source.
// Text carries a new delta when non-empty. Done marks the authoritative
// completion signal; Metadata travels with it (final answer, citations,
// similarity metrics) and is opaque to this package.
type SourceEvent struct {
	Text     string
	Done     bool
	Metadata map[string]any
}

// Source is a lazy, pull-based fragment source. Next returns io.EOF when
// the sequence ends without an explicit completion marker; any other
// error terminates the stream as a source failure.
type Source interface {
	Next(ctx context.Context) (SourceEvent, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (SourceEvent, error)

func (f SourceFunc) Next(ctx context.Context) (SourceEvent, error) { return f(ctx) }

// Sink receives the full displayed text after every paced emission. It
// must be fast and side-effect-only; a non-nil error aborts the stream.
type Sink func(displayed string) error

// Result is the single terminal outcome of a pipeline run. FullText and
// DisplayedText are always populated with whatever was accumulated, even
// when Err is set, so callers can show a graceful partial result.
type Result struct {
	FullText      string
	DisplayedText string
	Metadata      map[string]any
	Err           error
}

// item is the tagged union carried on the bounded channel: a text
// fragment, a completion signal, or a failure signal. Control signals
// share the channel with fragments to preserve ordering.
type itemKind int

const (
	fragmentItem itemKind = iota
	completionItem
	failureItem
)

type item struct {
	kind     itemKind
	text     string
	metadata map[string]any
	err      error
}

func fragment(text string) item           { return item{kind: fragmentItem, text: text} }
func completion(meta map[string]any) item { return item{kind: completionItem, metadata: meta} }
func failure(err error) item              { return item{kind: failureItem, err: err} }
