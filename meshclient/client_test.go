package meshclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laxect/kosmos/registry"
)

// startMesh spins up a real registry bound under a temp link dir and
// points config.LinkDir()/DBDir() at it for the duration of the test,
// so Client exercises the real dial-and-frame path end to end.
func startMesh(t *testing.T) {
	t.Helper()
	linkDir := t.TempDir() + "/"
	dbDir := t.TempDir() + "/"
	t.Setenv("KOSMOS_LINK_DIR", linkDir)
	t.Setenv("KOSMOS_DB_DIR", dbDir)

	server, err := registry.New(linkDir, dbDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = server.ListenAndServe(ctx) }()
	time.Sleep(20 * time.Millisecond)
}

func TestRegisterAssignsCanonicalName(t *testing.T) {
	startMesh(t)
	c := New("aoi")
	name, err := c.Register(context.Background())
	require.NoError(t, err)
	assert.Contains(t, name, "aoi/")
	assert.Equal(t, name, c.Name())
}

func TestListenBeforeRegisterFails(t *testing.T) {
	startMesh(t)
	c := New("aoi")
	_, err := c.Listen(context.Background())
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestConnectUnresolvedNameFails(t *testing.T) {
	startMesh(t)
	c := New("sora")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.Connect(ctx, "nobody-registered")
	assert.ErrorIs(t, err, ErrCannotResolve)
}

func TestRegisterListenAndConnect(t *testing.T) {
	startMesh(t)
	ctx := context.Background()

	server := New("yukikaze")
	_, err := server.Register(ctx)
	require.NoError(t, err)
	listener, err := server.Listen(ctx)
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			close(accepted)
			conn.Close()
		}
	}()

	client := New("sora")
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	conn, err := client.ConnectUntilSuccess(dialCtx, "yukikaze")
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatal("server never accepted the connection")
	}
}

func TestConnectUntilSuccessStopsOnUnresolvable(t *testing.T) {
	startMesh(t)
	c := New("aoi")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := c.ConnectUntilSuccess(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrCannotResolve) || errors.Is(err, context.DeadlineExceeded))
}
