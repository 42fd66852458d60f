package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/laxect/kosmos/store"
)

// release is the couple of fields githubrelease needs out of GitHub's
// releases API response; the original's release.rs struct mirrored
// the entire payload, which a direct net/http call has no need to do.
type release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
}

func fetchLatestRelease(t target) (*release, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodGet, t.releasesURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("githubrelease: fetch %s: %w", t, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("githubrelease: %s: unexpected status %d", t, resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("githubrelease: decode %s: %w", t, err)
	}
	return &rel, nil
}

// announcement is one "target released version" line for the cell
// pipeline's map stage to turn into a planet.Post.
type announcement struct {
	target  target
	version string
}

func (a announcement) message() string {
	return fmt.Sprintf("%s release %s.", a.target, a.version)
}

// pollTargets checks every tracked target's latest release against
// what's recorded in seenStore, returning one announcement per target
// whose tag has changed since the last poll.
func pollTargets(targetStore, seenStore *store.Tree) ([]announcement, error) {
	targets, err := listTargets(targetStore)
	if err != nil {
		return nil, err
	}

	var out []announcement
	for _, t := range targets {
		rel, err := fetchLatestRelease(t)
		if err != nil {
			log.WithError(err).Warnf("githubrelease: poll %s failed", t)
			continue
		}
		if rel == nil || rel.TagName == "" {
			continue
		}

		key := []byte(t.String())
		seen, ok, err := seenStore.Get(key)
		if err != nil {
			return nil, err
		}
		if ok && string(seen) == rel.TagName {
			continue
		}
		if err := seenStore.Insert(key, []byte(rel.TagName)); err != nil {
			return nil, err
		}
		out = append(out, announcement{target: t, version: rel.TagName})
	}
	return out, nil
}
