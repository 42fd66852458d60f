// Package meshclient implements the mesh client: register / resolve /
// ping / connect-until-success against the registry, plus framed
// send/receive helpers any node uses to talk to the registry or to
// its peers.
package meshclient

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/laxect/kosmos/internal/config"
	"github.com/laxect/kosmos/internal/logging"
	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/wire"
)

var log = logging.For("meshclient")

// ErrCannotConnect is the distinguished dial-failure-after-resolve
// error: ConnectUntilSuccess retries only on this error.
var ErrCannotConnect = errors.New("meshclient: can not connect")

// ErrCannotResolve means the registry does not know the target name.
var ErrCannotResolve = errors.New("meshclient: can not resolve")

// ErrNotRegistered is returned by Listen if Register hasn't completed
// yet: Listen's socket path is derived from the canonical name
// Register returns, so the ordering is enforced here rather than left
// as an easy-to-miss caller contract.
var ErrNotRegistered = errors.New("meshclient: must register before listen")

const decodeDeadline = 500 * time.Millisecond

// Client holds a node's logical name before registration and its
// canonical name afterward.
type Client struct {
	name       string
	registered bool
}

// New creates a client for the given logical name. The name becomes
// canonical only after a successful Register.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the client's current name: logical before Register,
// canonical after.
func (c *Client) Name() string {
	return c.name
}

func registrySocket() string {
	return filepath.Join(config.LinkDir(), config.RegistryName)
}

func dialRegistry(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", registrySocket())
	if err != nil {
		return nil, fmt.Errorf("meshclient: dial registry: %w", err)
	}
	return conn, nil
}

// Register sends Register(Planet{UnixSocket, name}) to the registry.
// On success it rewrites c.Name() to the canonical name the registry
// assigned. Register must complete before Listen.
func (c *Client) Register(ctx context.Context) (string, error) {
	conn, err := dialRegistry(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	me := planet.New(c.name, planet.UnixSocket)
	if err := planet.Send(conn, planet.RegisterRequest(me)); err != nil {
		return "", fmt.Errorf("meshclient: send register: %w", err)
	}

	var resp planet.RegisterResponse
	if _, err := planet.Recv(ctx, conn, decodeDeadline, &resp); err != nil {
		return "", fmt.Errorf("meshclient: recv register response: %w", err)
	}
	_ = wire.WriteExit(conn)

	switch resp.Kind {
	case planet.RegisterSuccess:
		c.name = resp.Name
		c.registered = true
		log.Infof("registered as %s", c.name)
		return c.name, nil
	case planet.RegisterFail:
		return "", fmt.Errorf("meshclient: register failed: %s", resp.Reason)
	default:
		return "", fmt.Errorf("meshclient: unexpected register response kind %d", resp.Kind)
	}
}

// resolve asks the registry to resolve name to a Planet.
func (c *Client) resolve(ctx context.Context, name string) (*planet.Planet, error) {
	conn, err := dialRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := planet.Send(conn, planet.ResolveRequest(name)); err != nil {
		return nil, fmt.Errorf("meshclient: send resolve: %w", err)
	}

	var resp planet.ResolveResponse
	if _, err := planet.Recv(ctx, conn, decodeDeadline, &resp); err != nil {
		return nil, fmt.Errorf("meshclient: recv resolve response: %w", err)
	}
	_ = wire.WriteExit(conn)

	if resp.Kind != planet.ResolveFound {
		return nil, nil
	}
	p := resp.Planet
	return &p, nil
}

// ping reports a dead peer to the registry so it can evict the entry.
func (c *Client) ping(ctx context.Context, name string) error {
	conn, err := dialRegistry(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := planet.Send(conn, planet.PingRequest(name)); err != nil {
		return fmt.Errorf("meshclient: send ping: %w", err)
	}
	return wire.WriteExit(conn)
}

// Connect resolves name and dials its socket once. A failed dial
// after a successful resolve reports a Ping (so the registry repairs
// its state) and returns ErrCannotConnect; an unresolved name returns
// ErrCannotResolve.
func (c *Client) Connect(ctx context.Context, name string) (net.Conn, error) {
	p, err := c.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrCannotResolve
	}
	if !p.IsUnixSocket() {
		return nil, fmt.Errorf("meshclient: unsupported transport kind %s", p.Kind)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", filepath.Join(config.LinkDir(), p.Name))
	if err != nil {
		if pingErr := c.ping(ctx, p.Name); pingErr != nil {
			log.WithError(pingErr).Warn("ping after failed dial also failed")
		}
		return nil, ErrCannotConnect
	}
	return conn, nil
}

// ConnectUntilSuccess retries Connect only on ErrCannotConnect; any
// other error (notably ErrCannotResolve) propagates immediately.
// Callers typically bound this with a context timeout (2s is typical).
func (c *Client) ConnectUntilSuccess(ctx context.Context, name string) (net.Conn, error) {
	for {
		conn, err := c.Connect(ctx, name)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, ErrCannotConnect) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
				continue
			}
		}
		return nil, err
	}
}

// SendOnce connects to peer, sends one framed pkg, and sends the exit
// sentinel before closing. Per the mesh's one-shot convention, callers
// initiating a single send must send the exit sentinel themselves.
func (c *Client) SendOnce(ctx context.Context, peer string, pkg encoding.BinaryMarshaler) error {
	conn, err := c.ConnectUntilSuccess(ctx, peer)
	if err != nil {
		return fmt.Errorf("meshclient: connect to %s: %w", peer, err)
	}
	defer conn.Close()

	if err := planet.Send(conn, pkg); err != nil {
		return fmt.Errorf("meshclient: send to %s: %w", peer, err)
	}
	return wire.WriteExit(conn)
}

// Listen binds a new listener at link_dir/<canonical name>. It is an
// error to call Listen before Register completes.
func (c *Client) Listen(ctx context.Context) (net.Listener, error) {
	if !c.registered {
		return nil, ErrNotRegistered
	}
	path := filepath.Join(config.LinkDir(), c.name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("meshclient: create socket dir for %s: %w", path, err)
	}
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("meshclient: listen on %s: %w", path, err)
	}
	log.Infof("listening as %s on %s", c.name, path)
	return listener, nil
}
