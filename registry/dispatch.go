package registry

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/wire"
)

const decodeDeadline = 500 * time.Millisecond

// handleOne reads one Request frame and dispatches it per the
// registry protocol, writing a framed response where the protocol
// calls for one. It reports wire.StatusExit when the connection's
// next frame was the exit sentinel, and any error is fatal to the
// session.
func (s *Server) handleOne(ctx context.Context, conn net.Conn) (wire.Status, error) {
	var req planet.Request
	status, err := planet.Recv(ctx, conn, decodeDeadline, &req)
	if err != nil {
		return status, fmt.Errorf("registry: read request: %w", err)
	}
	if status.IsExit() {
		return status, nil
	}

	switch req.Kind {
	case planet.RequestResolve:
		return wire.StatusContinue, s.handleResolve(conn, req.Name)
	case planet.RequestRegister:
		return wire.StatusContinue, s.handleRegister(conn, req.Planet)
	case planet.RequestPing:
		return wire.StatusContinue, s.handlePing(conn, req.Name)
	default:
		return wire.StatusContinue, fmt.Errorf("registry: unknown request kind %d", req.Kind)
	}
}

// handleResolve prefix-scans the name map and returns the first entry
// whose stored key starts with name.
func (s *Server) handleResolve(conn net.Conn, name string) error {
	entries, err := s.store.ScanPrefix([]byte(name))
	if err != nil {
		return fmt.Errorf("registry: scan prefix: %w", err)
	}
	if len(entries) == 0 {
		return planet.Send(conn, planet.NotFoundResponse())
	}
	var p planet.Planet
	if err := p.UnmarshalBinary(entries[0].Value); err != nil {
		return fmt.Errorf("registry: decode stored planet: %w", err)
	}
	return planet.Send(conn, planet.FoundResponse(p))
}

// handleRegister rewrites planet.Name to canonical form and inserts
// name -> planet, overwriting any prior entry under that name.
func (s *Server) handleRegister(conn net.Conn, p planet.Planet) error {
	if err := p.Canonicalize(); err != nil {
		return planet.Send(conn, planet.FailResponse(err.Error()))
	}
	body, err := p.MarshalBinary()
	if err != nil {
		return planet.Send(conn, planet.FailResponse(err.Error()))
	}
	if err := s.store.Insert([]byte(p.Name), body); err != nil {
		return planet.Send(conn, planet.FailResponse(err.Error()))
	}
	log.Infof("registered %s", p.Name)
	return planet.Send(conn, planet.SuccessResponse(p.Name))
}

// handlePing attempts to dial the socket advertised under name; if
// the dial fails, the entry is evicted from the map. Eviction happens
// only here, never on a timer.
func (s *Server) handlePing(conn net.Conn, name string) error {
	path := filepath.Join(s.linkDir, name)
	c, dialErr := net.DialTimeout("unix", path, decodeDeadline)
	if dialErr != nil {
		log.Warnf("ping failed for %s, evicting: %s", name, dialErr)
		if err := s.store.Remove([]byte(name)); err != nil {
			return fmt.Errorf("registry: evict %s: %w", name, err)
		}
	} else {
		_ = c.Close()
	}
	return planet.Send(conn, planet.Pong(0))
}
