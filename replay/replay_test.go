package replay_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/phobia/replay"
)

func writeRecords(t *testing.T, host, bodyPath string) string {
	t.Helper()

	dir := t.TempDir()
	if bodyPath == "" {
		bodyPath = filepath.Join(dir, "frame.txt")
		require.NoError(t, os.WriteFile(bodyPath, []byte("frame"), 0o644))
	}

	records := fmt.Sprintf(`[
		{"method": "POST", "host": %q, "path": "/a", "start": 0, "end": 40,
		 "content-type": "multipart", "body": {"path": %q, "name": "file"}},
		{"method": "PUT", "host": %q, "path": "/b", "start": 20, "end": 30,
		 "content-type": "multipart", "body": {"path": %q, "name": "file"}}
	]`, host, bodyPath, host, bodyPath)

	path := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(path, []byte(records), 0o644))
	return path
}

func TestRunner_Run(t *testing.T) {
	var hits atomic.Int64
	var auth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		auth.Store(r.Header.Get("Authorization"))
	}))
	defer server.Close()

	runner := replay.NewRunner(replay.Config{
		File:            writeRecords(t, server.URL, ""),
		Step:            10,
		Scale:           10,
		Unit:            5 * time.Millisecond,
		Timeout:         time.Second,
		MaxConnsPerHost: 2,
		Headers:         map[string]string{"Authorization": "Bearer token"},
	})

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	// [0, 4) and [2, 3) with a scaled step of 1
	assert.Equal(t, 5, result.Dispatches)
	assert.Equal(t, 2, result.Entries)
	assert.Equal(t, int64(5), hits.Load())
	assert.Equal(t, "Bearer token", auth.Load())
	assert.GreaterOrEqual(t, result.Duration, 3*5*time.Millisecond)
	assert.NoError(t, result.Error)
}

func TestRunner_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     replay.Config
		wantErr string
	}{
		{
			name:    "missing file",
			cfg:     replay.Config{File: filepath.Join(t.TempDir(), "none.json"), Step: 1, Scale: 1},
			wantErr: "records file not found",
		},
		{
			name:    "zero scale",
			cfg:     replay.Config{File: writeRecords(t, "http://localhost", ""), Step: 1},
			wantErr: "scale must be greater than 0",
		},
		{
			name:    "step scaled to zero",
			cfg:     replay.Config{File: writeRecords(t, "http://localhost", ""), Step: 5, Scale: 10},
			wantErr: "step must be at least one scaled time unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := replay.NewRunner(tt.cfg).Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, result)
		})
	}
}

func TestRunner_BodyFailureIsReported(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	missing := filepath.Join(t.TempDir(), "gone.bin")
	runner := replay.NewRunner(replay.Config{
		File:  writeRecords(t, server.URL, missing),
		Step:  10,
		Scale: 10,
		Unit:  time.Millisecond,
	})

	result, err := runner.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, err, result.Error)
	assert.Equal(t, int64(0), hits.Load())
}

func TestRunner_Cancelled(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := replay.NewRunner(replay.Config{
		File:  writeRecords(t, server.URL, ""),
		Step:  10,
		Scale: 10,
		Unit:  time.Millisecond,
	})

	result, err := runner.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)

	// the first record is released before the cancelled sleep
	assert.GreaterOrEqual(t, hits.Load(), int64(1))
	assert.Less(t, hits.Load(), int64(5))
}
