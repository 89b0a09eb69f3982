package async

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/observability"
)

func newTestRunner(buf *bytes.Buffer) *Runner {
	return NewRunner(observability.NewLogger(observability.InfoLevel, buf))
}

func TestRunner_Success(t *testing.T) {
	runner := newTestRunner(&bytes.Buffer{})
	var executed atomic.Bool

	runner.Go(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		executed.Store(true)
		return nil
	})

	require.NoError(t, runner.Wait(context.Background()))
	assert.True(t, executed.Load())
}

func TestRunner_SurvivesParentCancellation(t *testing.T) {
	runner := newTestRunner(&bytes.Buffer{})
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	var ctxErr atomic.Value
	runner.Go(parent, time.Second, "detached", func(ctx context.Context) error {
		ctxErr.Store(ctx.Err() == nil)
		return nil
	})

	require.NoError(t, runner.Wait(context.Background()))
	assert.Equal(t, true, ctxErr.Load())
}

func TestRunner_Timeout(t *testing.T) {
	var buf bytes.Buffer
	runner := newTestRunner(&buf)

	runner.Go(context.Background(), 20*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.NoError(t, runner.Wait(context.Background()))
	assert.Contains(t, buf.String(), "deadline exceeded")
}

func TestRunner_LogsErrorsAndPanics(t *testing.T) {
	var buf bytes.Buffer
	runner := newTestRunner(&buf)

	runner.Go(context.Background(), time.Second, "failing", func(ctx context.Context) error {
		return errors.New("insert failed")
	})
	runner.Go(context.Background(), time.Second, "panicking", func(ctx context.Context) error {
		panic("boom")
	})

	require.NoError(t, runner.Wait(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "insert failed")
	assert.Contains(t, out, "panic: boom")
	assert.Contains(t, out, `"task":"panicking"`)
}

func TestRunner_WaitHonorsContext(t *testing.T) {
	runner := newTestRunner(&bytes.Buffer{})
	release := make(chan struct{})
	defer close(release)

	runner.Go(context.Background(), time.Minute, "blocked", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, runner.Wait(ctx), context.DeadlineExceeded)
}
