package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"kanvaro_backend/platform/logger"

	"github.com/stretchr/testify/assert"
)

type fakePruner struct {
	cutoffs []time.Time
	err     error
}

func (p *fakePruner) DeleteSearchLogsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, p.err
}

func TestSearchLogCleanup_UsesRetentionCutoff(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}
	c := NewSearchLogCleanup(pruner, logger.Nop(), time.Minute, 30*24*time.Hour)
	c.now = func() time.Time { return now }

	c.cleanup(context.Background())

	assert.Equal(t, []time.Time{now.Add(-30 * 24 * time.Hour)}, pruner.cutoffs)
}

func TestSearchLogCleanup_Defaults(t *testing.T) {
	c := NewSearchLogCleanup(&fakePruner{}, nil, 0, 0)
	assert.Equal(t, defaultSearchLogCleanupInterval, c.interval)
	assert.Equal(t, defaultSearchLogRetention, c.retention)
}

func TestSearchLogCleanup_ErrorDoesNotPanic(t *testing.T) {
	c := NewSearchLogCleanup(&fakePruner{err: errors.New("boom")}, logger.Nop(), time.Minute, time.Hour)
	assert.NotPanics(t, func() { c.cleanup(context.Background()) })
}

func TestSearchLogCleanup_RunStopsOnCancel(t *testing.T) {
	pruner := &fakePruner{}
	c := NewSearchLogCleanup(pruner, logger.Nop(), time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
