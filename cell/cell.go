// Package cell implements the pipeline ("cell") fabric: a directed
// chain of typed stages connected by bounded channels. A stage is one
// of CronCell (no upstream), Cell (map, S->N), or TailCell (sink,
// S->nothing). Stages are linked by Link, never by holding pointers to
// each other, so the graph is built by a linker rather than by stages
// reaching into one another.
package cell

import (
	"context"
	"errors"
	"time"

	"github.com/laxect/kosmos/internal/logging"
)

var log = logging.For("cell")

// DefaultQueueCapacity is the default bound on an edge's channel,
// within the spec's 20-42 range.
const DefaultQueueCapacity = 32

// Errors returned by linking and running stages; these are
// programming errors, surfaced immediately with no retry.
var (
	ErrSourceExists   = errors.New("cell: source already linked")
	ErrNextExists     = errors.New("cell: next already linked")
	ErrSourceNotSet   = errors.New("cell: no source set")
	ErrNextNotSet     = errors.New("cell: no next set")
	ErrNextNotAllowed = errors.New("cell: tail cells accept no downstream")
)

// SourceCell is the capability half of a stage that can feed a
// downstream edge: CronCell and Cell implement it.
type SourceCell[N any] interface {
	setNext(e *edge[N]) error
}

// NextCell is the capability half of a stage that can consume an
// upstream edge: Cell and TailCell implement it.
type NextCell[S any] interface {
	setSource(e *edge[S]) error
}

// edge is one bounded, single-producer single-consumer queue between
// two stages.
type edge[T any] struct {
	ch chan T
}

func newEdge[T any](capacity int) *edge[T] {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &edge[T]{ch: make(chan T, capacity)}
}

// Link connects src's downstream to dst's upstream through one new
// bounded edge, with the default queue capacity.
func Link[T any](src SourceCell[T], dst NextCell[T]) error {
	return LinkWithCapacity[T](src, dst, DefaultQueueCapacity)
}

// LinkWithCapacity is Link with an explicit queue capacity.
func LinkWithCapacity[T any](src SourceCell[T], dst NextCell[T], capacity int) error {
	e := newEdge[T](capacity)
	if err := src.setNext(e); err != nil {
		return err
	}
	if err := dst.setSource(e); err != nil {
		return err
	}
	return nil
}

// Lambda is a pure function from S to a Result<N>, matching the
// source's Fn(S) -> anyhow::Result<N> contract: one input in, one
// output or error out.
type Lambda[S, N any] func(S) (N, error)

// CronLambda produces one Output with no input, invoked on every
// scheduler tick.
type CronLambda[Output any] func() (Output, error)

// TailLambda consumes one S and produces no output.
type TailLambda[S any] func(S) error

// Scheduler returns how long to sleep before the next cron tick.
type Scheduler func() time.Duration

// safeCall invokes fn, recovering any panic into a returned error so a
// bad lambda call never takes down the stage's restart loop.
func safeCall(component string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("%s: lambda panicked: %v", component, r)
			err = errLambdaPanicked
		}
	}()
	return fn()
}

var errLambdaPanicked = errors.New("cell: lambda panicked")

// isLinkError reports whether err is a programming error from checkSet:
// the stage was spawned without being fully linked. There is no lambda
// to retry in that case, so the loop must stop instead of spinning.
func isLinkError(err error) bool {
	return errors.Is(err, ErrSourceNotSet) || errors.Is(err, ErrNextNotSet)
}

// spawnLoop runs step in an infinite loop on its own goroutine until
// ctx is cancelled or step reports the stage is done (upstream
// closed). A lambda error logs and retries from the upstream wait; a
// link error (the stage was never fully linked) logs and terminates
// the loop instead, since retrying it can never succeed. The returned
// channel closes when the loop exits.
func spawnLoop(ctx context.Context, step func(ctx context.Context) (done bool, err error)) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			if ctx.Err() != nil {
				return
			}
			done, err := step(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				log.WithError(err).Error("stage step failed")
				if isLinkError(err) {
					return
				}
				continue
			}
			if done {
				return
			}
		}
	}()
	return finished
}
