// Command terminus runs the kosmos registry: it resolves node names to
// Unix sockets and arbitrates heartbeats for every other node in the
// mesh.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/laxect/kosmos/internal/config"
	"github.com/laxect/kosmos/internal/logging"
	"github.com/laxect/kosmos/registry"
)

var log = logging.For("terminus")

func main() {
	if os.Getenv("KOSMOS_DEBUG") != "" {
		logging.SetDebug(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := registry.New(config.LinkDir(), config.DBDir())
	if err != nil {
		log.WithError(err).Fatal("terminus: failed to start registry")
	}
	defer server.Close()

	log.Info("terminus listening")
	if err := server.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("terminus: registry exited")
	}
}
