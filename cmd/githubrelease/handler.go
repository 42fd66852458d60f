package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/store"
)

const watcherNode = "Github_watcher"

// commandHandler answers "<verb> <user>/<repo>" Asks against the
// tracked-target tree, the Go shape of the original's target::cmd.
type commandHandler struct {
	targets *store.Tree
}

func (h *commandHandler) Handle(ctx context.Context, in planet.Ask) (*planet.Post, error) {
	fields := strings.Fields(in.Body)
	if len(fields) == 0 {
		return nil, fmt.Errorf("githubrelease: empty command")
	}
	verb := fields[0]

	var msg string
	switch verb {
	case "add":
		if len(fields) != 2 {
			return nil, fmt.Errorf("githubrelease: add expects one user/repo argument")
		}
		t, err := parseTarget(fields[1])
		if err != nil {
			return nil, err
		}
		if err := addTarget(h.targets, t); err != nil {
			return nil, err
		}
		msg = fmt.Sprintf("now watching %s", t)
	case "remove":
		if len(fields) != 2 {
			return nil, fmt.Errorf("githubrelease: remove expects one user/repo argument")
		}
		t, err := parseTarget(fields[1])
		if err != nil {
			return nil, err
		}
		if err := removeTarget(h.targets, t); err != nil {
			return nil, err
		}
		msg = fmt.Sprintf("stopped watching %s", t)
	case "list":
		targets, err := listTargets(h.targets)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		b.WriteString("watched targets")
		for _, t := range targets {
			b.WriteString("\n  -")
			b.WriteString(t.String())
		}
		msg = b.String()
	default:
		return nil, fmt.Errorf("githubrelease: unknown verb %q", verb)
	}

	post := planet.NewPost(msg, watcherNode)
	return &post, nil
}
