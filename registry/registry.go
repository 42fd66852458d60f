// Package registry implements the terminus: the singleton process that
// owns the name -> Planet map, resolves names for clients, and evicts
// stale entries when a heartbeat ping fails to reach the advertised
// socket.
package registry

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/laxect/kosmos/internal/config"
	"github.com/laxect/kosmos/internal/logging"
	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/store"
)

var log = logging.For("registry")

const defaultMaxConnections = 256

// Server is the registry process: a name->Planet store plus a
// listener on the well-known "kosmos" socket.
type Server struct {
	linkDir        string
	maxConnections int
	store          *store.Tree
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithMaxConnections bounds concurrent in-flight sessions, mirroring
// the teacher's connection-limiter semaphore.
func WithMaxConnections(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxConnections = n
		}
	}
}

// New clears and recreates the link directory (so stale socket files
// from a prior run can't block binding), opens the registry's own
// durable store under dbDir, and returns a Server ready to
// ListenAndServe.
func New(linkDir, dbDir string, opts ...Option) (*Server, error) {
	if err := LinkInit(linkDir); err != nil {
		return nil, fmt.Errorf("registry: init link dir: %w", err)
	}
	tree, err := store.Open(dbDir, config.RegistryName)
	if err != nil {
		return nil, fmt.Errorf("registry: open store: %w", err)
	}
	s := &Server{
		linkDir:        linkDir,
		maxConnections: defaultMaxConnections,
		store:          tree,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LinkInit deletes every file in linkDir and recreates it empty. This
// is destructive by design: every node is expected to re-register
// after the registry restarts.
func LinkInit(linkDir string) error {
	if err := os.RemoveAll(linkDir); err != nil {
		return fmt.Errorf("registry: clear link dir: %w", err)
	}
	if err := os.MkdirAll(linkDir, 0o755); err != nil {
		return fmt.Errorf("registry: recreate link dir: %w", err)
	}
	return nil
}

// ListenAndServe binds link_dir/kosmos and serves connections until
// ctx is cancelled or a fatal accept error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	socketPath := filepath.Join(s.linkDir, config.RegistryName)
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("registry: bind %s: %w", socketPath, err)
	}
	log.Infof("listening on %s", socketPath)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})

	sem := make(chan struct{}, s.maxConnections)
	group.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("registry: accept: %w", err)
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				_ = conn.Close()
				return nil
			}
			group.Go(func() error {
				defer func() { <-sem }()
				s.serveConn(ctx, conn)
				return nil
			})
		}
	})

	return group.Wait()
}

// Close releases the registry's durable store.
func (s *Server) Close() error {
	return s.store.Close()
}

// serveConn runs one session's state machine: ReadLen -> ReadBody ->
// Dispatch -> WriteResp -> ReadLen, terminating on Exit or any fatal
// connection error.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	for {
		status, err := s.handleOne(ctx, conn)
		if err != nil {
			log.WithError(err).Debug("session ended")
			return
		}
		if status.IsExit() {
			return
		}
	}
}

