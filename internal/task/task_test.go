package task

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_Join(t *testing.T) {
	errBoom := errors.New("boom")

	h := Go(func() error { return errBoom })
	assert.ErrorIs(t, h.Join(), errBoom)

	// joining twice returns the same result
	assert.ErrorIs(t, h.Join(), errBoom)

	h = Go(func() error { return nil })
	assert.NoError(t, h.Join())
}

func TestHandle_Panic(t *testing.T) {
	h := Go(func() error {
		panic("exploded")
	})

	err := h.Join()
	require.Error(t, err)

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "exploded", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Contains(t, err.Error(), "exploded")
}

func TestHandle_Done(t *testing.T) {
	release := make(chan struct{})
	h := Go(func() error {
		<-release
		return nil
	})

	select {
	case <-h.Done():
		t.Fatal("Done() closed before the task finished")
	default:
	}

	close(release)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after the task finished")
	}
}

func TestGroup_EmptyWait(t *testing.T) {
	var g Group
	assert.NoError(t, g.Wait())
	assert.Equal(t, 0, g.Len())
}

func TestGroup_WaitJoinsAll(t *testing.T) {
	var g Group
	var finished atomic.Int32

	errFirst := errors.New("first")
	errSecond := errors.New("second")

	// the failing tasks finish before the slow ones; Wait still joins the rest
	g.Go(func() error {
		time.Sleep(20 * time.Millisecond)
		finished.Add(1)
		return nil
	})
	g.Go(func() error {
		finished.Add(1)
		return errFirst
	})
	g.Go(func() error {
		finished.Add(1)
		return errSecond
	})
	g.Go(func() error {
		time.Sleep(40 * time.Millisecond)
		finished.Add(1)
		return nil
	})

	assert.Equal(t, 4, g.Len())

	err := g.Wait()
	assert.ErrorIs(t, err, errFirst, "Wait() should report the first error in issue order")
	assert.Equal(t, int32(4), finished.Load())
}

func TestGroup_WaitReportsPanic(t *testing.T) {
	var g Group
	g.Go(func() error { return nil })
	g.Go(func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})

	var panicErr *PanicError
	assert.ErrorAs(t, g.Wait(), &panicErr)
}

func TestGroup_ConcurrentGo(t *testing.T) {
	var g Group
	var outer Group

	for i := 0; i < 10; i++ {
		outer.Go(func() error {
			for j := 0; j < 10; j++ {
				g.Go(func() error { return nil })
			}
			return nil
		})
	}

	require.NoError(t, outer.Wait())
	assert.Equal(t, 100, g.Len())
	assert.NoError(t, g.Wait())
}
