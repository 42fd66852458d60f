// Command sora is the HTTP-to-mesh webhook bridge: it exposes
// POST /telegram and forwards each body as a one-shot planet.Post to
// yukikaze.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/laxect/kosmos/internal/logging"
	"github.com/laxect/kosmos/meshclient"
	"github.com/laxect/kosmos/planet"
)

var log = logging.For("sora")

const connectTimeout = 2 * time.Second

type telegramPost struct {
	Msg  string `json:"msg"`
	Node string `json:"node"`
}

type server struct {
	mesh *meshclient.Client
}

func (s *server) handleTelegram(w http.ResponseWriter, r *http.Request) {
	var body telegramPost
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "error", http.StatusBadRequest)
		return
	}

	log.Infof("send %+v", body)
	ctx, cancel := context.WithTimeout(r.Context(), connectTimeout)
	defer cancel()

	post := planet.NewPost(body.Msg, body.Node)
	if err := s.mesh.SendOnce(ctx, "yukikaze", post); err != nil {
		log.WithError(err).Error("sora: forward to yukikaze failed")
		w.Write([]byte("error"))
		return
	}
	log.Info("send success.")
	w.Write([]byte("done"))
}

func main() {
	if os.Getenv("KOSMOS_DEBUG") != "" {
		logging.SetDebug(true)
	}

	port := os.Getenv("SORA_PORT")
	if port == "" {
		port = "3000"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mesh := meshclient.New("sora")
	if _, err := mesh.Register(ctx); err != nil {
		log.WithError(err).Fatal("sora: registration failed")
	}

	srv := &server{mesh: mesh}
	router := mux.NewRouter()
	router.HandleFunc("/telegram", srv.handleTelegram).Methods(http.MethodPost)

	httpServer := &http.Server{
		Addr:    "localhost:" + port,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Infof("sora listening on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("sora: http server exited")
	}
}
