package registry

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/wire"
)

func startTestServer(t *testing.T) (linkDir string, dial func() net.Conn) {
	t.Helper()
	linkDir = t.TempDir()
	dbDir := t.TempDir()

	server, err := New(linkDir, dbDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ready := make(chan struct{})
	go func() {
		// give ListenAndServe a moment to bind before signalling ready.
		go func() { time.Sleep(20 * time.Millisecond); close(ready) }()
		_ = server.ListenAndServe(ctx)
	}()
	<-ready

	socketPath := filepath.Join(linkDir, "kosmos")
	return linkDir, func() net.Conn {
		conn, err := net.Dial("unix", socketPath)
		require.NoError(t, err)
		return conn
	}
}

func TestRegisterThenResolve(t *testing.T) {
	_, dial := startTestServer(t)
	ctx := context.Background()

	regConn := dial()
	defer regConn.Close()
	require.NoError(t, planet.Send(regConn, planet.RegisterRequest(planet.New("aoi", planet.UnixSocket))))
	var regResp planet.RegisterResponse
	_, err := planet.Recv(ctx, regConn, time.Second, &regResp)
	require.NoError(t, err)
	require.Equal(t, planet.RegisterSuccess, regResp.Kind)
	require.NoError(t, wire.WriteExit(regConn))

	resolveConn := dial()
	defer resolveConn.Close()
	require.NoError(t, planet.Send(resolveConn, planet.ResolveRequest("aoi")))
	var resolveResp planet.ResolveResponse
	_, err = planet.Recv(ctx, resolveConn, time.Second, &resolveResp)
	require.NoError(t, err)
	assert.Equal(t, planet.ResolveFound, resolveResp.Kind)
	assert.Equal(t, regResp.Name, resolveResp.Planet.Name)
}

func TestResolveUnknownNameNotFound(t *testing.T) {
	_, dial := startTestServer(t)
	conn := dial()
	defer conn.Close()

	require.NoError(t, planet.Send(conn, planet.ResolveRequest("nobody")))
	var resp planet.ResolveResponse
	_, err := planet.Recv(context.Background(), conn, time.Second, &resp)
	require.NoError(t, err)
	assert.Equal(t, planet.ResolveNotFound, resp.Kind)
}

func TestPingEvictsDeadEntry(t *testing.T) {
	linkDir, dial := startTestServer(t)
	ctx := context.Background()

	regConn := dial()
	require.NoError(t, planet.Send(regConn, planet.RegisterRequest(planet.New("ghost", planet.UnixSocket))))
	var regResp planet.RegisterResponse
	_, err := planet.Recv(ctx, regConn, time.Second, &regResp)
	require.NoError(t, err)
	regConn.Close()
	// "ghost"'s canonical socket is never bound, so a ping must fail
	// and evict it.
	_ = linkDir

	pingConn := dial()
	require.NoError(t, planet.Send(pingConn, planet.PingRequest(regResp.Name)))
	var pong planet.Pong
	_, err = planet.Recv(ctx, pingConn, time.Second, &pong)
	require.NoError(t, err)
	pingConn.Close()

	resolveConn := dial()
	defer resolveConn.Close()
	require.NoError(t, planet.Send(resolveConn, planet.ResolveRequest("ghost")))
	var resolveResp planet.ResolveResponse
	_, err = planet.Recv(ctx, resolveConn, time.Second, &resolveResp)
	require.NoError(t, err)
	assert.Equal(t, planet.ResolveNotFound, resolveResp.Kind)
}

func TestExitSentinelEndsSession(t *testing.T) {
	_, dial := startTestServer(t)
	conn := dial()
	defer conn.Close()

	require.NoError(t, wire.WriteExit(conn))
	// the server should close its side without writing anything back;
	// a subsequent read should see EOF rather than hang.
	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	assert.Error(t, err)
}
