// Command yukikaze bridges the mesh to a Telegram channel: every
// planet.Post it receives is rendered and pushed as one chat message.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/laxect/kosmos/internal/logging"
	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/xeno"
)

var log = logging.For("yukikaze")

// render reproduces the bridge's literal signature line.
func render(post planet.Post) string {
	return fmt.Sprintf("%s\n\n------%s - 雪風Dタイプ", post.Msg, post.OriginNode)
}

type postHandler struct {
	bot    *bot
	chatID int64
}

func (h *postHandler) Handle(ctx context.Context, in planet.Post) (*planet.Pong, error) {
	if err := h.bot.sendMessage(h.chatID, render(in)); err != nil {
		return nil, err
	}
	return nil, nil
}

func main() {
	if os.Getenv("KOSMOS_DEBUG") != "" {
		logging.SetDebug(true)
	}

	token := os.Getenv("KOSMOS_TG_TOKEN")
	if token == "" {
		log.Fatal("yukikaze: KOSMOS_TG_TOKEN is required")
	}
	chatID, err := strconv.ParseInt(os.Getenv("KOSMOS_TG_CHANNEL"), 10, 64)
	if err != nil {
		log.WithError(err).Fatal("yukikaze: KOSMOS_TG_CHANNEL must be an integer chat id")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := &postHandler{bot: newBot(token), chatID: chatID}
	client := xeno.New[planet.Post, *planet.Post, planet.Pong]("yukikaze", handler)

	if err := client.Register(ctx); err != nil {
		log.WithError(err).Fatal("yukikaze: registration failed")
	}

	log.Info("yukikaze bridge up")
	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("yukikaze: serve loop exited")
	}
}
