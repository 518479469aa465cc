package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLogger struct {
	infos  []string
	errors []string
}

func (l *captureLogger) Info(msg string, args ...any)  { l.infos = append(l.infos, msg) }
func (l *captureLogger) Error(msg string, args ...any) { l.errors = append(l.errors, msg) }

func TestSweeperPurgesStaleDrafts(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	repo := NewMemoryStore(WithClock(clock.Now))

	_, _, err := repo.Put(ctx, "tender", "stale", map[string]any{"a": 1})
	require.NoError(t, err)
	clock.Advance(10 * 24 * time.Hour)
	_, _, err = repo.Put(ctx, "tender", "fresh", map[string]any{"a": 2})
	require.NoError(t, err)

	logger := &captureLogger{}
	var seen []int
	sweeper, err := NewSweeper(repo, 7*24*time.Hour,
		WithSweepClock(clock.Now),
		WithSweepLogger(logger),
		OnSweep(func(n int, err error) { seen = append(seen, n) }),
	)
	require.NoError(t, err)

	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{1}, seen)
	assert.Len(t, logger.infos, 1)

	rec, err := repo.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSweeperSchedule(t *testing.T) {
	sweeper, err := NewSweeper(NewMemoryStore(), time.Hour, WithSchedule("*/5 * * * *"), WithLocation(time.UTC))
	require.NoError(t, err)
	assert.True(t, sweeper.Next().IsZero())

	require.NoError(t, sweeper.Start(context.Background()))
	defer sweeper.Stop()
	assert.False(t, sweeper.Next().IsZero())
	assert.Equal(t, 0, sweeper.Next().Minute()%5)
}

func TestSweeperRejectsBadInput(t *testing.T) {
	_, err := NewSweeper(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewSweeper(NewMemoryStore(), 0)
	assert.Error(t, err)

	sweeper, err := NewSweeper(NewMemoryStore(), time.Hour, WithSchedule("not a schedule"))
	require.NoError(t, err)
	assert.Error(t, sweeper.Start(context.Background()))
}
