package cell

import "context"

// Cell is a map stage: it reads one S from upstream, applies lambda,
// and enqueues the result N downstream. On upstream close it exits
// cleanly.
type Cell[S, N any] struct {
	lambda Lambda[S, N]
	source *edge[S]
	next   *edge[N]
}

// NewCell builds a map stage around lambda.
func NewCell[S, N any](lambda Lambda[S, N]) *Cell[S, N] {
	return &Cell[S, N]{lambda: lambda}
}

func (c *Cell[S, N]) setNext(e *edge[N]) error {
	if c.next != nil {
		return ErrNextExists
	}
	c.next = e
	return nil
}

func (c *Cell[S, N]) setSource(e *edge[S]) error {
	if c.source != nil {
		return ErrSourceExists
	}
	c.source = e
	return nil
}

func (c *Cell[S, N]) checkSet() error {
	if c.source == nil {
		return ErrSourceNotSet
	}
	if c.next == nil {
		return ErrNextNotSet
	}
	return nil
}

// Run performs exactly one input->output hop: block for one S from
// upstream, apply lambda, enqueue N downstream. Returns done=true when
// the upstream edge has closed.
func (c *Cell[S, N]) Run(ctx context.Context) (done bool, err error) {
	if err := c.checkSet(); err != nil {
		return false, err
	}

	var in S
	select {
	case v, ok := <-c.source.ch:
		if !ok {
			return true, nil
		}
		in = v
	case <-ctx.Done():
		return false, ctx.Err()
	}

	var out N
	callErr := safeCall("cell", func() error {
		o, err := c.lambda(in)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if callErr != nil {
		return false, callErr
	}

	select {
	case c.next.ch <- out:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// SpawnLoop runs Run in an infinite restart loop until ctx is
// cancelled or the upstream edge closes.
func (c *Cell[S, N]) SpawnLoop(ctx context.Context) <-chan struct{} {
	return spawnLoop(ctx, c.Run)
}
