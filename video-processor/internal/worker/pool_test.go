package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type funcJob struct {
	id string
	fn func(ctx context.Context) error
}

func (j funcJob) ID() string                        { return j.id }
func (j funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }

func TestDispatcher_RunsAllJobs(t *testing.T) {
	d := NewDispatcher(3, 10, quietLogger())
	d.Run(context.Background())
	defer d.Stop()

	var wg sync.WaitGroup
	var done int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		job := funcJob{id: fmt.Sprintf("job-%d", i), fn: func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&done, 1)
			return nil
		}}
		require.NoError(t, d.SubmitJob(context.Background(), job))
	}
	wg.Wait()
	assert.Equal(t, int32(20), atomic.LoadInt32(&done))
}

func TestDispatcher_BoundsConcurrency(t *testing.T) {
	d := NewDispatcher(2, 10, quietLogger())
	d.Run(context.Background())
	defer d.Stop()

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		job := funcJob{id: fmt.Sprint(i), fn: func(ctx context.Context) error {
			defer wg.Done()
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}}
		require.NoError(t, d.SubmitJob(context.Background(), job))
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestDispatcher_SubmitBlocksWhenFull(t *testing.T) {
	d := NewDispatcher(1, 1, quietLogger())
	d.Run(context.Background())

	release := make(chan struct{})
	blocking := func(ctx context.Context) error {
		<-release
		return nil
	}

	// One job running, one held by the dispatch loop, one queued.
	for i := 0; i < 3; i++ {
		require.NoError(t, d.SubmitJob(context.Background(), funcJob{id: fmt.Sprint(i), fn: blocking}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := d.SubmitJob(ctx, funcJob{id: "overflow", fn: blocking})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	d.Stop()
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := NewDispatcher(1, 1, quietLogger())
	d.Run(context.Background())
	d.Stop()
	d.Stop()

	err := d.SubmitJob(context.Background(), funcJob{id: "late", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestDispatcher_StopWaitsForRunningJob(t *testing.T) {
	d := NewDispatcher(1, 1, quietLogger())
	d.Run(context.Background())

	started := make(chan struct{})
	var finished int32
	require.NoError(t, d.SubmitJob(context.Background(), funcJob{id: "slow", fn: func(ctx context.Context) error {
		close(started)
		time.Sleep(30 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
		return nil
	}}))

	<-started
	d.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}
