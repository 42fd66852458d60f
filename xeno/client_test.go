package xeno

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laxect/kosmos/meshclient"
	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/registry"
)

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

type echoHandler struct{}

func (echoHandler) Handle(ctx context.Context, in planet.Ask) (*planet.Post, error) {
	post := planet.NewPost(in.Body, "echo")
	return &post, nil
}

func TestClientRoundTrip(t *testing.T) {
	startMesh(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := New[planet.Ask, *planet.Ask, planet.Post]("echo", echoHandler{})
	require.NoError(t, server.Register(ctx))

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	mesh := meshclient.New("caller")
	dialCtx, dialCancel := context.WithTimeout(ctx, 2*time.Second)
	defer dialCancel()
	conn, err := mesh.ConnectUntilSuccess(dialCtx, "echo")
	require.NoError(t, err)

	require.NoError(t, planet.Send(conn, planet.NewAsk("ping")))
	var resp planet.Post
	_, err = planet.Recv(ctx, conn, time.Second, &resp)
	require.NoError(t, err)
	assert.Equal(t, "ping", resp.Msg)
	assert.Equal(t, "echo", resp.OriginNode)

	// closing before cancelling unblocks the server's in-flight read so
	// Run's errgroup can actually drain and return.
	conn.Close()
	cancel()
	select {
	case <-serveErr:
	case <-time.After(time.Second):
		t.Fatal("server did not shut down after context cancel")
	}
}
