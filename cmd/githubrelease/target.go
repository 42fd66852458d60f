package main

import (
	"fmt"
	"strings"

	"github.com/laxect/kosmos/store"
)

// target identifies one tracked GitHub repository as "user/repo", the
// same encoding the original kept as its sled key.
type target struct {
	user string
	repo string
}

func newTarget(user, repo string) target {
	return target{user: user, repo: repo}
}

func parseTarget(s string) (target, error) {
	user, repo, ok := strings.Cut(s, "/")
	if !ok {
		return target{}, fmt.Errorf("githubrelease: %q is not \"user/repo\"", s)
	}
	return target{user: user, repo: repo}, nil
}

func (t target) String() string {
	return t.user + "/" + t.repo
}

func (t target) releasesURL() string {
	return fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", t.user, t.repo)
}

func addTarget(tree *store.Tree, t target) error {
	return tree.Insert([]byte(t.String()), nil)
}

func removeTarget(tree *store.Tree, t target) error {
	return tree.Remove([]byte(t.String()))
}

func listTargets(tree *store.Tree) ([]target, error) {
	entries, err := tree.Iter()
	if err != nil {
		return nil, err
	}
	out := make([]target, 0, len(entries))
	for _, e := range entries {
		t, err := parseTarget(string(e.Key))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
