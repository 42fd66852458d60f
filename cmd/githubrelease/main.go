// Command githubrelease watches a tracked set of GitHub repositories
// for new releases, announcing them to yukikaze, and exposes an
// Ask-driven command surface for managing the watch list.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laxect/kosmos/cell"
	"github.com/laxect/kosmos/internal/config"
	"github.com/laxect/kosmos/internal/logging"
	"github.com/laxect/kosmos/meshclient"
	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/store"
	"github.com/laxect/kosmos/xeno"
)

var log = logging.For("githubrelease")

const pollInterval = 10 * time.Minute

func main() {
	if os.Getenv("KOSMOS_DEBUG") != "" {
		logging.SetDebug(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	targetStore, err := store.Open(config.DBDir(), "github_release_targets")
	if err != nil {
		log.WithError(err).Fatal("githubrelease: open target store")
	}
	defer targetStore.Close()
	seenStore, err := store.Open(config.DBDir(), "github_release_seen")
	if err != nil {
		log.WithError(err).Fatal("githubrelease: open seen store")
	}
	defer seenStore.Close()

	handler := &commandHandler{targets: targetStore}
	commands := xeno.New[planet.Ask, *planet.Ask, planet.Post]("github_release", handler)
	if err := commands.Register(ctx); err != nil {
		log.WithError(err).Fatal("githubrelease: registration failed")
	}
	go func() {
		if err := commands.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("githubrelease: command surface exited")
		}
	}()

	sender := meshclient.New("github_release-poll")
	cron := cell.NewCronCell(func() ([]announcement, error) {
		return pollTargets(targetStore, seenStore)
	}, func() time.Duration { return pollInterval })
	toPost := cell.NewCell(func(batch []announcement) ([]planet.Post, error) {
		posts := make([]planet.Post, 0, len(batch))
		for _, a := range batch {
			posts = append(posts, planet.NewPost(a.message(), watcherNode))
		}
		return posts, nil
	})
	announce := cell.NewTailCell(func(posts []planet.Post) error {
		for _, post := range posts {
			sendCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := sender.SendOnce(sendCtx, "yukikaze", post)
			cancel()
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err := cell.Link[[]announcement](cron, toPost); err != nil {
		log.WithError(err).Fatal("githubrelease: link cron->map")
	}
	if err := cell.Link[[]planet.Post](toPost, announce); err != nil {
		log.WithError(err).Fatal("githubrelease: link map->tail")
	}

	log.Info("githubrelease watcher up")
	cronDone := cron.SpawnLoop(ctx)
	mapDone := toPost.SpawnLoop(ctx)
	tailDone := announce.SpawnLoop(ctx)

	<-ctx.Done()
	<-cronDone
	<-mapDone
	<-tailDone
}
