package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReal_Sleep(t *testing.T) {
	c := Real()

	start := time.Now()
	if err := c.Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Sleep() returned after %v, want >= 20ms", elapsed)
	}

	if err := c.Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) error = %v", err)
	}
}

func TestReal_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Real().Sleep(ctx, 10*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Sleep() ignored cancellation")
	}
}

func TestManual(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	_ = m.Sleep(context.Background(), 2*time.Second)
	_ = m.Sleep(context.Background(), 0)
	_ = m.Sleep(context.Background(), time.Second)

	if got := m.Now(); !got.Equal(start.Add(3 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(3*time.Second))
	}

	sleeps := m.Sleeps()
	want := []time.Duration{2 * time.Second, 0, time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("Sleeps() = %v, want %v", sleeps, want)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("Sleeps()[%d] = %v, want %v", i, sleeps[i], want[i])
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() on cancelled context error = %v", err)
	}
}
