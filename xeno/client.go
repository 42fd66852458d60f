// Package xeno provides the generic "register, bind, accept, spawn
// handler loop" scaffold used by any node that exposes a request/
// response endpoint over the mesh.
package xeno

import (
	"context"
	"encoding"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/laxect/kosmos/internal/logging"
	"github.com/laxect/kosmos/meshclient"
	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/wire"
)

var log = logging.For("xeno")

const decodeDeadlineDuration = 500 * time.Millisecond

// Handler processes one decoded input and optionally produces an
// output to write back. Returning (nil, nil) means "no output" - the
// contract's one explicitly-allowed silent case.
type Handler[In any, Out encoding.BinaryMarshaler] interface {
	Handle(ctx context.Context, in In) (*Out, error)
}

// InPtr is satisfied by *In for any In, so a decoded value can be
// unmarshaled in place; In itself must be a plain struct type like
// planet.Ask.
type InPtr[In any] interface {
	encoding.BinaryUnmarshaler
	*In
}

// Client wraps a mesh client and a Handler into a full server loop.
type Client[In any, InP InPtr[In], Out encoding.BinaryMarshaler] struct {
	mesh    *meshclient.Client
	handler Handler[In, Out]
}

// New builds a Client for the given logical node name and handler.
func New[In any, InP InPtr[In], Out encoding.BinaryMarshaler](name string, handler Handler[In, Out]) *Client[In, InP, Out] {
	return &Client[In, InP, Out]{
		mesh:    meshclient.New(name),
		handler: handler,
	}
}

// Register registers the node with the mesh registry.
func (c *Client[In, InP, Out]) Register(ctx context.Context) error {
	_, err := c.mesh.Register(ctx)
	return err
}

// Run listens for connections and serves each on its own session
// goroutine until ctx is cancelled.
func (c *Client[In, InP, Out]) Run(ctx context.Context) error {
	listener, err := c.mesh.Listen(ctx)
	if err != nil {
		return fmt.Errorf("xeno: listen: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})
	group.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("xeno: accept: %w", err)
			}
			group.Go(func() error {
				c.serveConn(ctx, conn)
				return nil
			})
		}
	})
	return group.Wait()
}

func (c *Client[In, InP, Out]) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	for {
		status, err := c.handleOne(ctx, conn)
		if err != nil {
			log.WithError(err).Error("xeno session error")
			return
		}
		if status.IsExit() {
			return
		}
	}
}

func (c *Client[In, InP, Out]) handleOne(ctx context.Context, conn net.Conn) (wire.Status, error) {
	var in In
	status, err := planet.Recv(ctx, conn, decodeDeadlineDuration, InP(&in))
	if err != nil {
		return status, fmt.Errorf("xeno: read request: %w", err)
	}
	if status.IsExit() {
		return status, nil
	}

	out, err := c.handler.Handle(ctx, in)
	if err != nil {
		return wire.StatusContinue, fmt.Errorf("xeno: handler: %w", err)
	}
	if out == nil {
		return wire.StatusContinue, nil
	}
	if err := planet.Send(conn, *out); err != nil {
		return wire.StatusContinue, fmt.Errorf("xeno: write response: %w", err)
	}
	return wire.StatusContinue, nil
}
