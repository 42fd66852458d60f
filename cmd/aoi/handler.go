package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/laxect/kosmos/planet"
	"github.com/laxect/kosmos/store"
)

const aoiNode = "青い"

// commandHandler answers "<namespace> <verb> [names...]" Asks against
// the keyword/page trees, the Go shape of the original's structopt
// command grammar.
type commandHandler struct {
	keyword *store.Tree
	page    *store.Tree
}

func (h *commandHandler) treeFor(namespace string) (*store.Tree, error) {
	switch namespace {
	case "keyword":
		return h.keyword, nil
	case "page":
		return h.page, nil
	default:
		return nil, fmt.Errorf("aoi: unknown namespace %q", namespace)
	}
}

func formatKeys(title string, names []string) string {
	var b strings.Builder
	b.WriteString(title)
	for _, n := range names {
		b.WriteString("\n  -")
		b.WriteString(n)
	}
	return b.String()
}

func (h *commandHandler) Handle(ctx context.Context, in planet.Ask) (*planet.Post, error) {
	fields := strings.Fields(in.Body)
	if len(fields) < 2 {
		return nil, fmt.Errorf("aoi: expected \"<namespace> <verb> [names...]\", got %q", in.Body)
	}
	namespace, verb, names := fields[0], fields[1], fields[2:]

	tree, err := h.treeFor(namespace)
	if err != nil {
		return nil, err
	}

	var msg string
	switch verb {
	case "add":
		for _, name := range names {
			if err := tree.Insert([]byte(name), watchedMarker); err != nil {
				return nil, err
			}
		}
		ks, err := keys(tree)
		if err != nil {
			return nil, err
		}
		msg = formatKeys("key added", ks)
	case "remove":
		for _, name := range names {
			if err := tree.Remove([]byte(name)); err != nil {
				return nil, err
			}
		}
		ks, err := keys(tree)
		if err != nil {
			return nil, err
		}
		msg = formatKeys("key removed", ks)
	case "clear":
		if err := tree.Clear(); err != nil {
			return nil, err
		}
		msg = "key list cleared"
	case "list":
		ks, err := keys(tree)
		if err != nil {
			return nil, err
		}
		msg = formatKeys("list key", ks)
	default:
		return nil, fmt.Errorf("aoi: unknown verb %q", verb)
	}

	post := planet.NewPost(msg, aoiNode)
	return &post, nil
}
