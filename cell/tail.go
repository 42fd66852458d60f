package cell

import "context"

// TailCell is the pipeline's sink stage: it reads one S from upstream
// and hands it to lambda, producing no output. It has no setNext and
// so can never be linked as an upstream of another stage — a Tail is
// always the end of its chain.
type TailCell[S any] struct {
	lambda TailLambda[S]
	source *edge[S]
}

// NewTailCell builds a sink stage around lambda.
func NewTailCell[S any](lambda TailLambda[S]) *TailCell[S] {
	return &TailCell[S]{lambda: lambda}
}

func (t *TailCell[S]) setSource(e *edge[S]) error {
	if t.source != nil {
		return ErrSourceExists
	}
	t.source = e
	return nil
}

func (t *TailCell[S]) checkSet() error {
	if t.source == nil {
		return ErrSourceNotSet
	}
	return nil
}

// Run consumes exactly one S from upstream and passes it to lambda.
// Returns done=true when the upstream edge has closed.
func (t *TailCell[S]) Run(ctx context.Context) (done bool, err error) {
	if err := t.checkSet(); err != nil {
		return false, err
	}

	var in S
	select {
	case v, ok := <-t.source.ch:
		if !ok {
			return true, nil
		}
		in = v
	case <-ctx.Done():
		return false, ctx.Err()
	}

	if err := safeCall("tail", func() error { return t.lambda(in) }); err != nil {
		return false, err
	}
	return false, nil
}

// SpawnLoop runs Run in an infinite restart loop until ctx is
// cancelled or the upstream edge closes.
func (t *TailCell[S]) SpawnLoop(ctx context.Context) <-chan struct{} {
	return spawnLoop(ctx, t.Run)
}
