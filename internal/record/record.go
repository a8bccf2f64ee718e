// Package record describes the traffic patterns replayed by the generator.
package record

import (
	"cmp"

	"github.com/rs/zerolog"
)

// Record is one declarative traffic pattern: an HTTP call repeated across an
// active window measured in abstract time units.
//
// Records are input data and are never mutated once loaded. Components that
// need derived values (scaled windows) work on their own copies.
type Record struct {
	// Method is the HTTP verb (GET, POST, ...)
	Method string `json:"method" yaml:"method" validate:"required"`

	// Host includes scheme and authority, e.g. "http://localhost:8080"
	Host string `json:"host" yaml:"host" validate:"required,url"`

	// Path is appended verbatim to Host
	Path string `json:"path" yaml:"path"`

	// Start and End bound the active window [Start, End)
	Start uint64 `json:"start" yaml:"start"`
	End   uint64 `json:"end" yaml:"end" validate:"gtefield=Start"`

	// Body is the request payload source
	Body Body `json:"-" yaml:"-" validate:"-"`
}

// URL returns the request target.
func (r Record) URL() string {
	return r.Host + r.Path
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r Record) MarshalZerologObject(e *zerolog.Event) {
	e.Str("method", r.Method).
		Str("url", r.URL()).
		Uint64("start", r.Start).
		Uint64("end", r.End)
	if r.Body != nil {
		e.Str("body", r.Body.Kind())
	}
}

// Compare orders records by (Start, End) ascending. Method, URL and body do
// not take part in the ordering.
func Compare(a, b Record) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}
