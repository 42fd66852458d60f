package cell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkConnectsEdge(t *testing.T) {
	cron := NewCronCell(func() (int, error) { return 1, nil }, func() time.Duration { return time.Millisecond })
	tail := NewTailCell(func(int) error { return nil })
	require.NoError(t, Link[int](cron, tail))
}

func TestLinkRejectsDoubleNext(t *testing.T) {
	cron := NewCronCell(func() (int, error) { return 1, nil }, func() time.Duration { return time.Millisecond })
	a := NewTailCell(func(int) error { return nil })
	b := NewTailCell(func(int) error { return nil })
	require.NoError(t, Link[int](cron, a))
	err := Link[int](cron, b)
	assert.ErrorIs(t, err, ErrNextExists)
}

func TestLinkRejectsDoubleSource(t *testing.T) {
	a := NewCronCell(func() (int, error) { return 1, nil }, func() time.Duration { return time.Millisecond })
	b := NewCronCell(func() (int, error) { return 2, nil }, func() time.Duration { return time.Millisecond })
	tail := NewTailCell(func(int) error { return nil })
	require.NoError(t, Link[int](a, tail))
	err := Link[int](b, tail)
	assert.ErrorIs(t, err, ErrSourceExists)
}

func TestCronCellFeedsCell(t *testing.T) {
	out := make(chan int, 1)
	cron := NewCronCell(func() (int, error) { return 41, nil }, func() time.Duration { return time.Millisecond })
	increment := NewCell(func(n int) (int, error) { return n + 1, nil })
	tail := NewTailCell(func(n int) error {
		out <- n
		return nil
	})
	require.NoError(t, Link[int](cron, increment))
	require.NoError(t, Link[int](increment, tail))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	cron.SpawnLoop(ctx)
	increment.SpawnLoop(ctx)
	tail.SpawnLoop(ctx)

	select {
	case v := <-out:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("pipeline never produced a value")
	}
}

func TestRunBeforeLinkErrors(t *testing.T) {
	cron := NewCronCell(func() (int, error) { return 1, nil }, func() time.Duration { return time.Millisecond })
	err := cron.Run(context.Background())
	assert.ErrorIs(t, err, ErrNextNotSet)

	mapStage := NewCell(func(n int) (int, error) { return n, nil })
	_, err = mapStage.Run(context.Background())
	assert.ErrorIs(t, err, ErrSourceNotSet)

	tail := NewTailCell(func(int) error { return nil })
	_, err = tail.Run(context.Background())
	assert.ErrorIs(t, err, ErrSourceNotSet)
}

func TestSafeCallRecoversPanic(t *testing.T) {
	err := safeCall("test", func() error {
		panic("boom")
	})
	assert.ErrorIs(t, err, errLambdaPanicked)
}

func TestSpawnLoopStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := spawnLoop(ctx, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spawnLoop never stopped after cancel")
	}
}

func TestSpawnLoopStopsOnDone(t *testing.T) {
	ctx := context.Background()
	done := spawnLoop(ctx, func(ctx context.Context) (bool, error) {
		return true, nil
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spawnLoop never stopped on done=true")
	}
}

func TestSpawnLoopContinuesAfterError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	attempts := 0
	done := spawnLoop(ctx, func(ctx context.Context) (bool, error) {
		attempts++
		if attempts < 3 {
			return false, errors.New("transient")
		}
		return true, nil
	})
	select {
	case <-done:
		assert.Equal(t, 3, attempts)
	case <-time.After(time.Second):
		t.Fatal("spawnLoop never recovered from errors")
	}
}
