// Package timeline schedules records against a simulated clock and fires their
// requests.
//
// A Scheduler turns every record into an Entry, sorts the entries by their
// window and releases each one when the simulated clock reaches its start.
// A released Entry then fires one request per step across its window.
package timeline

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/wesleyorama2/phobia/internal/clock"
	"github.com/wesleyorama2/phobia/internal/http"
	"github.com/wesleyorama2/phobia/internal/record"
	"github.com/wesleyorama2/phobia/internal/task"
)

// Sender sends one outbound request.
type Sender interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Entry is the runtime form of a Record: its window and step are expressed in
// scaled time units.
//
// An Entry is driven by a single goroutine. Run spawns one goroutine per
// step; Wait joins them.
type Entry struct {
	record record.Record
	start  uint64
	end    uint64
	step   uint64

	unit   time.Duration
	clock  clock.Clock
	sender Sender
	fs     afero.Fs
	logger zerolog.Logger

	dispatches task.Group
}

func newEntry(rec record.Record, step, scale uint64, o *options) *Entry {
	rec.Start /= scale
	rec.End /= scale

	return &Entry{
		record: rec,
		start:  rec.Start,
		end:    rec.End,
		step:   step / scale,
		unit:   o.unit,
		clock:  o.clock,
		sender: o.sender,
		fs:     o.fs,
		logger: o.logger,
	}
}

// Record returns the entry's record with its window already scaled.
func (e *Entry) Record() record.Record {
	return e.record
}

// Window returns the scaled [start, end) window.
func (e *Entry) Window() (start, end uint64) {
	return e.start, e.end
}

// Step returns the scaled cadence.
func (e *Entry) Step() uint64 {
	return e.step
}

// Dispatches returns how many requests Run fires.
func (e *Entry) Dispatches() int {
	if e.end <= e.start || e.step == 0 {
		return 0
	}

	span := e.end - e.start
	n := span / e.step
	if span%e.step != 0 {
		n++
	}
	return int(n)
}

// Offsets returns the scaled offsets at which Run fires a request. The slice
// holds every offset of the window; Run itself steps lazily.
func (e *Entry) Offsets() []uint64 {
	n := e.Dispatches()
	offsets := make([]uint64, n)
	for i := range offsets {
		offsets[i] = e.start + uint64(i)*e.step
	}
	return offsets
}

// Run fires one request at every offset of the window, sleeping one step
// between offsets. Requests are not awaited; use Wait for that.
//
// The body source is read once, on the first offset. A body read failure is
// returned. Failed requests are only logged.
func (e *Entry) Run(ctx context.Context) error {
	if e.end <= e.start {
		e.logger.Debug().Object("record", e.record).Msg("empty window, nothing to send")
		return nil
	}

	var payload record.Payload
	for offset := e.start; ; {
		if payload == nil {
			loaded, err := e.record.Body.Load(e.fs)
			if err != nil {
				return fmt.Errorf("%s %s: %w", e.record.Method, e.record.URL(), err)
			}
			payload = loaded
		}

		e.logger.Info().Uint64("step", offset).Object("record", e.record).Msg("dispatching")

		e.dispatch(ctx, offset, payload)

		next := offset + e.step
		if next >= e.end || next < offset {
			return nil
		}
		if err := e.clock.Sleep(ctx, time.Duration(e.step)*e.unit); err != nil {
			return err
		}
		offset = next
	}
}

// dispatch sends one request on its own goroutine.
func (e *Entry) dispatch(ctx context.Context, offset uint64, payload record.Payload) {
	method, url := e.record.Method, e.record.URL()
	logger := e.logger.With().Uint64("step", offset).Object("record", e.record).Logger()

	// a fired request is bounded by the client timeout only
	ctx = context.WithoutCancel(ctx)

	e.dispatches.Go(func() error {
		body, contentType, err := payload.Encode()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to encode body")
			return nil
		}

		req := http.NewRequest(method, url).WithBody(body, contentType)
		resp, err := e.sender.Do(ctx, req)
		if err != nil {
			logger.Warn().Err(err).Msg("request failed")
			return nil
		}

		event := logger.Info()
		if !resp.IsSuccess() {
			event = logger.Warn()
		}
		event.Int("status", resp.StatusCode).
			Dur("elapsed", resp.Timing.TotalTime).
			Msg("response")
		return nil
	})
}

// Wait blocks until every request fired by Run has finished. Only crashed
// dispatches are reported; failed requests were already logged.
func (e *Entry) Wait() error {
	return e.dispatches.Wait()
}

// Compare orders entries by their scaled (start, end) window.
func Compare(a, b *Entry) int {
	if c := cmp.Compare(a.start, b.start); c != 0 {
		return c
	}
	return cmp.Compare(a.end, b.end)
}

// Equal reports whether two entries occupy the same scaled window.
func Equal(a, b *Entry) bool {
	return a.start == b.start && a.end == b.end
}
