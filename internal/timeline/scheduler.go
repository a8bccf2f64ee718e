package timeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/wesleyorama2/phobia/internal/clock"
	"github.com/wesleyorama2/phobia/internal/http"
	"github.com/wesleyorama2/phobia/internal/record"
	"github.com/wesleyorama2/phobia/internal/task"
)

// Configuration errors returned by Build.
var (
	ErrInvalidScale  = errors.New("scale must be greater than 0")
	ErrInvalidMethod = errors.New("invalid HTTP method")
	ErrInvalidWindow = errors.New("start must not be after end")
	ErrInvalidStep   = errors.New("step must be at least one scaled time unit")
	ErrMissingBody   = errors.New("record has no body")
	ErrInvalidUnit   = errors.New("unit must be positive")
	ErrTimeOverflow  = errors.New("scaled time does not fit in a time.Duration")
)

// ErrAlreadyStarted is returned when Start is called more than once.
var ErrAlreadyStarted = errors.New("scheduler already started")

// DefaultUnit is the real duration of one scaled time unit.
const DefaultUnit = time.Second

// State is the lifecycle state of a Scheduler.
type State int32

const (
	// StateBuilt indicates the entries are sorted and nothing was released.
	StateBuilt State = iota
	// StateRunning indicates Start is releasing entries.
	StateRunning
	// StateDraining indicates Wait is joining released entries.
	StateDraining
	// StateDone indicates every released entry has finished.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Option configures a Scheduler.
type Option func(*options)

type options struct {
	unit   time.Duration
	clock  clock.Clock
	sender Sender
	fs     afero.Fs
	logger zerolog.Logger
}

// WithUnit sets the real duration of one scaled time unit.
func WithUnit(unit time.Duration) Option {
	return func(o *options) {
		o.unit = unit
	}
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithSender sets the client used for every dispatch.
func WithSender(s Sender) Option {
	return func(o *options) {
		o.sender = s
	}
}

// WithFs sets the filesystem body sources are read from.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Scheduler releases entries against a simulated clock and supervises their
// completion.
//
// Lifecycle: Built -> Running (Start) -> Draining (Wait) -> Done.
type Scheduler struct {
	entries []*Entry
	opts    options

	state   atomic.Int32
	current atomic.Uint64

	startOnce sync.Once
	released  task.Group
}

// Build validates records and turns them into entries sorted by window.
//
// Every time quantity is divided by scale with integer division. Nothing is
// constructed when a record is invalid.
func Build(records []record.Record, step, scale uint64, opts ...Option) (*Scheduler, error) {
	o := options{
		unit:   DefaultUnit,
		clock:  clock.Real(),
		fs:     afero.NewOsFs(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sender == nil {
		o.sender = http.NewClient()
	}

	if scale == 0 {
		return nil, ErrInvalidScale
	}
	if o.unit <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUnit, o.unit)
	}
	for i, rec := range records {
		if err := validateRecord(rec, step, scale, o.unit); err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
	}

	entries := lo.Map(records, func(rec record.Record, _ int) *Entry {
		return newEntry(rec, step, scale, &o)
	})
	slices.SortStableFunc(entries, Compare)

	return &Scheduler{
		entries: entries,
		opts:    o,
	}, nil
}

func validateRecord(rec record.Record, step, scale uint64, unit time.Duration) error {
	if !validMethod(rec.Method) {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, rec.Method)
	}
	if rec.Start > rec.End {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidWindow, rec.Start, rec.End)
	}
	if rec.Body == nil {
		return ErrMissingBody
	}
	start, end := rec.Start/scale, rec.End/scale
	if start < end && step/scale == 0 {
		return fmt.Errorf("%w: step %d / scale %d", ErrInvalidStep, step, scale)
	}

	// release delays are bounded by end, step sleeps by step
	limit := uint64(math.MaxInt64 / int64(unit))
	if end > limit {
		return fmt.Errorf("%w: end %d at %s per unit", ErrTimeOverflow, end, unit)
	}
	if start < end && step/scale > limit {
		return fmt.Errorf("%w: step %d at %s per unit", ErrTimeOverflow, step/scale, unit)
	}
	return nil
}

// validMethod reports whether method is an HTTP token (RFC 7230).
func validMethod(method string) bool {
	return method != "" && strings.IndexFunc(method, func(r rune) bool {
		return r > 0x7e || !isTokenRune(r)
	}) == -1
}

func isTokenRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("!#$%&'*+-.^_`|~", r)
}

// Entries returns the entries in release order.
func (s *Scheduler) Entries() []*Entry {
	return slices.Clone(s.entries)
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Current returns the simulated offset the clock last advanced to.
func (s *Scheduler) Current() uint64 {
	return s.current.Load()
}

// Start releases every entry in order. Before releasing an entry whose start
// lies ahead of the simulated clock it sleeps for the difference; entries
// sharing a start are released together. Each released entry runs, then
// waits for its own requests, on its own goroutine.
//
// Start returns once every entry is released. If ctx ends during a sleep,
// the remaining entries are not released and ctx.Err() is returned.
func (s *Scheduler) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	s.startOnce.Do(func() {
		err = s.release(ctx)
	})
	return err
}

func (s *Scheduler) release(ctx context.Context) error {
	s.state.Store(int32(StateRunning))
	s.opts.logger.Info().Int("entries", len(s.entries)).Msg("starting timeline")

	for _, entry := range s.entries {
		current := s.current.Load()
		if entry.start > current {
			delay := time.Duration(entry.start-current) * s.opts.unit
			if err := s.opts.clock.Sleep(ctx, delay); err != nil {
				s.opts.logger.Warn().Err(err).Uint64("current", current).Msg("release interrupted")
				return err
			}
			s.current.Store(entry.start)
		}

		s.opts.logger.Debug().
			Uint64("current", s.current.Load()).
			Object("record", entry.record).
			Int("dispatches", entry.Dispatches()).
			Msg("releasing entry")

		entry := entry
		s.released.Go(func() error {
			runErr := entry.Run(ctx)
			waitErr := entry.Wait()
			if runErr != nil {
				s.opts.logger.Error().Err(runErr).Object("record", entry.record).Msg("entry failed")
				return runErr
			}
			return waitErr
		})
	}

	return nil
}

// Wait joins every released entry in release order and returns the first
// error after all of them have finished. Called before Start it returns
// immediately.
func (s *Scheduler) Wait() error {
	s.state.CompareAndSwap(int32(StateRunning), int32(StateDraining))

	err := s.released.Wait()

	if s.State() == StateDraining {
		s.state.Store(int32(StateDone))
	}
	s.opts.logger.Info().Int("released", s.released.Len()).Msg("timeline finished")
	return err
}
