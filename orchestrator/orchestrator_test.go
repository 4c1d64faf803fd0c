package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExecutesJobs(t *testing.T) {
	p := New(Options{Workers: 4})
	defer p.Close(context.Background())

	const n = 200
	var counter int64
	for i := 0; i < n; i++ {
		p.Run(func() { atomic.AddInt64(&counter, 1) })
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&counter) == n
	}, time.Second, time.Millisecond)

	assert.Equal(t, int64(n), p.Metrics().JobsRun)
}

func TestClosedPoolDropsJobs(t *testing.T) {
	p := New(Options{Workers: 1})
	require.NoError(t, p.Close(context.Background()))

	ran := false
	p.Run(func() { ran = true })

	assert.False(t, ran)
	assert.Equal(t, int64(1), p.Metrics().JobsDropped)
}

func TestDoubleCloseReturnsErrClosed(t *testing.T) {
	p := New(Options{Workers: 1})
	require.NoError(t, p.Close(context.Background()))
	assert.ErrorIs(t, p.Close(context.Background()), ErrClosed)
}

func TestCloseWaitsForQueueDrain(t *testing.T) {
	p := New(Options{Workers: 1, QueueSize: 10})
	var ran int32
	for i := 0; i < 5; i++ {
		p.Run(func() {
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&ran, 1)
		})
	}
	require.NoError(t, p.Close(context.Background()))
	assert.Equal(t, int32(5), ran)
}

func TestJobPanicIsRecoveredAndCounted(t *testing.T) {
	p := New(Options{Workers: 1})
	defer p.Close(context.Background())

	p.Run(func() { panic("boom") })

	require.Eventually(t, func() bool {
		return p.Metrics().JobsFailed == 1
	}, time.Second, time.Millisecond)
}
