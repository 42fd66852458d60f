package main

import (
	"github.com/laxect/kosmos/internal/config"
	"github.com/laxect/kosmos/store"
)

// pageStatus tracks whether a watched forum link has already been
// reposted to the chat bridge.
type pageStatus byte

const (
	pagePending pageStatus = iota
	pageComplete
)

var watchedMarker = []byte{byte(pagePending)}

// openNamespace opens one of aoi's per-concern trees: "keyword"
// (substrings that gate which RSS items get watched), "page" (watched
// forum links and their repost status) and "config" (the last seen
// thread id).
func openNamespace(name string) (*store.Tree, error) {
	return store.Open(config.DBDir(), "aoi_"+name)
}

func keys(t *store.Tree) ([]string, error) {
	entries, err := t.Iter()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, string(e.Key))
	}
	return out, nil
}
