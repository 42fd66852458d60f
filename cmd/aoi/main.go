// Command aoi watches a forum RSS feed for posts matching tracked
// keywords, announcing matches to yukikaze, and exposes an Ask-driven
// command surface for managing the keyword/page watch lists.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laxect/kosmos/cell"
	"github.com/laxect/kosmos/internal/logging"
	"github.com/laxect/kosmos/meshclient"
	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/xeno"
)

var log = logging.For("aoi")

const fetchInterval = 10 * time.Minute

func main() {
	if os.Getenv("KOSMOS_DEBUG") != "" {
		logging.SetDebug(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keywordStore, err := openNamespace("keyword")
	if err != nil {
		log.WithError(err).Fatal("aoi: open keyword store")
	}
	defer keywordStore.Close()
	pageStore, err := openNamespace("page")
	if err != nil {
		log.WithError(err).Fatal("aoi: open page store")
	}
	defer pageStore.Close()
	configStore, err := openNamespace("config")
	if err != nil {
		log.WithError(err).Fatal("aoi: open config store")
	}
	defer configStore.Close()

	handler := &commandHandler{keyword: keywordStore, page: pageStore}
	commands := xeno.New[planet.Ask, *planet.Ask, planet.Post]("aoi", handler)
	if err := commands.Register(ctx); err != nil {
		log.WithError(err).Fatal("aoi: registration failed")
	}
	go func() {
		if err := commands.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("aoi: command surface exited")
		}
	}()

	sender := meshclient.New("aoi-feed")
	cron := cell.NewCronCell(func() ([]string, error) {
		return fetchAndWatch(keywordStore, pageStore, configStore)
	}, func() time.Duration { return fetchInterval })
	toPost := cell.NewCell(func(queued []string) (planet.Post, error) {
		top := "new matches"
		msg := formatKeys(top, queued)
		return planet.NewPost(msg, aoiNode), nil
	})
	announce := cell.NewTailCell(func(post planet.Post) error {
		if post.Msg == "new matches" {
			return nil
		}
		sendCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return sender.SendOnce(sendCtx, "yukikaze", post)
	})

	if err := cell.Link[[]string](cron, toPost); err != nil {
		log.WithError(err).Fatal("aoi: link cron->map")
	}
	if err := cell.Link[planet.Post](toPost, announce); err != nil {
		log.WithError(err).Fatal("aoi: link map->tail")
	}

	log.Info("aoi watcher up")
	cronDone := cron.SpawnLoop(ctx)
	mapDone := toPost.SpawnLoop(ctx)
	tailDone := announce.SpawnLoop(ctx)

	<-ctx.Done()
	<-cronDone
	<-mapDone
	<-tailDone
}
