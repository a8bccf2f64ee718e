package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/phobia/internal/config"
	"github.com/wesleyorama2/phobia/internal/http"
	"github.com/wesleyorama2/phobia/internal/timeline"
)

// Config configures a Runner.
type Config struct {
	// File is the JSON or YAML records file
	File string

	// Step is the raw interval between two requests of a record
	Step uint64

	// Scale divides every start, end and step; it must not be zero
	Scale uint64

	// Unit is the real duration of one scaled unit (default 1s)
	Unit time.Duration

	// Timeout bounds a single request (default 30s)
	Timeout time.Duration

	// MaxConnsPerHost limits connections per host; zero means no limit
	MaxConnsPerHost int

	// Headers are added to every request
	Headers map[string]string

	// UserAgent sets the User-Agent header unless Headers carries one
	UserAgent string

	// Logger receives run and dispatch events (default: disabled)
	Logger *zerolog.Logger
}

// Result summarizes a run.
type Result struct {
	// File is the records file that was replayed
	File string `json:"file"`

	// StartTime is when the first entry was released
	StartTime time.Time `json:"startTime"`

	// EndTime is when the last request completed
	EndTime time.Time `json:"endTime"`

	// Duration is the total run duration
	Duration time.Duration `json:"duration"`

	// Entries is the number of records replayed
	Entries int `json:"entries"`

	// Dispatches is the number of requests a full run fires
	Dispatches int `json:"dispatches"`

	// Error is the first run-level failure, if any
	Error error `json:"-"`
}

// Runner replays one records file.
type Runner struct {
	config Config
}

// NewRunner creates a new runner with the given configuration.
func NewRunner(cfg Config) *Runner {
	return &Runner{config: cfg}
}

// Run loads, builds and replays the records file.
//
// Configuration errors are returned before anything is sent and with a nil
// Result. Once the run has started a Result is always returned; cancelling
// ctx stops further releases and Run still waits for released records.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.config
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	records, err := config.LoadRecords(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("error loading records: %w", err)
	}

	client := http.NewClient(r.clientOptions()...)
	defer client.CloseIdleConnections()

	opts := []timeline.Option{
		timeline.WithSender(client),
		timeline.WithLogger(logger),
	}
	if cfg.Unit > 0 {
		opts = append(opts, timeline.WithUnit(cfg.Unit))
	}

	scheduler, err := timeline.Build(records, cfg.Step, cfg.Scale, opts...)
	if err != nil {
		return nil, err
	}

	result := &Result{
		File:       cfg.File,
		Entries:    len(scheduler.Entries()),
		Dispatches: scheduler.TotalDispatches(),
	}

	logger.Info().
		Str("file", cfg.File).
		Int("entries", result.Entries).
		Int("dispatches", result.Dispatches).
		Msg("timeline built")

	result.StartTime = time.Now()
	startErr := scheduler.Start(ctx)
	if startErr != nil {
		logger.Warn().Err(startErr).Msg("release interrupted, waiting for released entries")
	}

	result.Error = scheduler.Wait()
	if result.Error == nil && startErr != nil {
		result.Error = fmt.Errorf("timeline interrupted: %w", startErr)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	return result, result.Error
}

func (r *Runner) clientOptions() []http.ClientOption {
	cfg := r.config

	var opts []http.ClientOption
	if cfg.Timeout > 0 {
		opts = append(opts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxConnsPerHost > 0 {
		opts = append(opts, http.WithMaxConnsPerHost(cfg.MaxConnsPerHost))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(cfg.UserAgent))
	}
	for key, value := range cfg.Headers {
		opts = append(opts, http.WithHeader(key, value))
	}
	return opts
}
