// Package sim drives a cache model with the records of a trace.
package sim

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

// ErrDivergence is returned when the model and the reference model classify
// the same access differently.
var ErrDivergence = errors.New("models diverged")

// Event describes one processed trace record.
type Event struct {
	// Seq numbers the processed records from 1.
	Seq      uint64
	Record   trace.Record
	SetIndex uint64
	Tag      uint64
	// Results holds one classification for loads and stores, two for
	// modifies.
	Results []cache.Classification
}

// Observer is notified after each processed record.
type Observer interface {
	Observe(event Event)
}

// Runner feeds trace records to a model in trace order.
type Runner struct {
	model     cache.Model
	geometry  cache.Geometry
	reference cache.Model
	verbose   io.Writer
	logger    *zap.Logger
	observers []Observer

	seq uint64
}

// RunnerOption is a functional option for configuring the Runner.
type RunnerOption func(*Runner)

// WithVerbose echoes every processed record and its classifications to w.
func WithVerbose(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.verbose = w
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithObserver adds an observer.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

// WithReference runs a second model in lockstep and fails the run on the
// first access the two models classify differently.
func WithReference(m cache.Model) RunnerOption {
	return func(r *Runner) {
		r.reference = m
	}
}

// NewRunner creates a Runner for a model built with the given geometry.
func NewRunner(model cache.Model, g cache.Geometry, opts ...RunnerOption) *Runner {
	r := &Runner{
		model:    model,
		geometry: g,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run processes every record of the trace and returns the model's counters.
func (r *Runner) Run(reader *trace.Reader) (cache.Counters, error) {
	r.logger.Info("simulation started",
		zap.Stringer("geometry", r.geometry),
		zap.Bool("verify", r.reference != nil),
	)

	for {
		rec, ok := reader.Next()
		if !ok {
			break
		}

		if err := r.Step(rec); err != nil {
			return r.model.Counters(), err
		}
	}

	if err := reader.Err(); err != nil {
		return r.model.Counters(), err
	}

	counters := r.model.Counters()
	stats := reader.Stats()
	r.logger.Info("simulation finished",
		zap.Uint64("records", stats.Records),
		zap.Uint64("instructions", stats.Instructions),
		zap.Uint64("malformed", stats.Malformed),
		zap.Uint64("hits", counters.Hits),
		zap.Uint64("misses", counters.Misses),
		zap.Uint64("evictions", counters.Evictions),
	)

	return counters, nil
}

// Step processes a single record. Instruction records are ignored.
func (r *Runner) Step(rec trace.Record) error {
	var results []cache.Classification

	setIndex, tag := cache.Decode(rec.Address, r.geometry)

	switch rec.Op {
	case trace.Load, trace.Store:
		results = []cache.Classification{r.model.Access(setIndex, tag)}
	case trace.Modify:
		first, second := cache.Modify(r.model, setIndex, tag)
		results = []cache.Classification{first, second}
	default:
		return nil
	}

	r.seq++

	if r.verbose != nil {
		if _, err := fmt.Fprintln(r.verbose, verboseLine(rec, results)); err != nil {
			return fmt.Errorf("writing verbose output: %w", err)
		}
	}

	if r.reference != nil {
		if err := r.check(rec, setIndex, tag, results); err != nil {
			return err
		}
	}

	event := Event{
		Seq:      r.seq,
		Record:   rec,
		SetIndex: setIndex,
		Tag:      tag,
		Results:  results,
	}
	for _, o := range r.observers {
		o.Observe(event)
	}

	return nil
}

func (r *Runner) check(
	rec trace.Record,
	setIndex, tag uint64,
	results []cache.Classification,
) error {
	for i, want := range results {
		got := r.reference.Access(setIndex, tag)
		if got != want {
			r.logger.Error("reference model disagrees",
				zap.Uint64("seq", r.seq),
				zap.Stringer("record", rec),
				zap.Int("access", i),
				zap.Stringer("model", want),
				zap.Stringer("reference", got),
			)
			return fmt.Errorf("%w at record %d (%s): model %q, reference %q",
				ErrDivergence, r.seq, rec, want, got)
		}
	}
	return nil
}

func verboseLine(rec trace.Record, results []cache.Classification) string {
	var sb strings.Builder
	sb.WriteString(rec.String())
	for _, c := range results {
		sb.WriteByte(' ')
		sb.WriteString(c.String())
	}
	return sb.String()
}
