package cell

import (
	"context"
	"time"
)

// CronCell is the pipeline's head stage: it has no upstream, and on
// each scheduler tick it invokes lambda and enqueues the result
// downstream, blocking on backpressure.
type CronCell[Output any] struct {
	lambda    CronLambda[Output]
	scheduler Scheduler
	next      *edge[Output]
}

// NewCronCell builds a cron head with the given lambda and tick
// scheduler.
func NewCronCell[Output any](lambda CronLambda[Output], scheduler Scheduler) *CronCell[Output] {
	return &CronCell[Output]{lambda: lambda, scheduler: scheduler}
}

func (c *CronCell[Output]) setNext(e *edge[Output]) error {
	if c.next != nil {
		return ErrNextExists
	}
	c.next = e
	return nil
}

// checkSet reports whether the stage is ready to run.
func (c *CronCell[Output]) checkSet() error {
	if c.next == nil {
		return ErrNextNotSet
	}
	return nil
}

// Run performs exactly one cron tick: sleep for scheduler(), invoke
// lambda, enqueue the result. A lambda error logs and the caller's
// restart loop continues to the next tick.
func (c *CronCell[Output]) Run(ctx context.Context) error {
	if err := c.checkSet(); err != nil {
		return err
	}
	select {
	case <-time.After(c.scheduler()):
	case <-ctx.Done():
		return ctx.Err()
	}

	var out Output
	err := safeCall("cron", func() error {
		o, err := c.lambda()
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case c.next.ch <- out:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SpawnLoop runs Run in an infinite restart loop until ctx is
// cancelled; a failed tick logs and the loop continues from the next
// scheduler wait.
func (c *CronCell[Output]) SpawnLoop(ctx context.Context) <-chan struct{} {
	return spawnLoop(ctx, func(ctx context.Context) (bool, error) {
		return false, c.Run(ctx)
	})
}
