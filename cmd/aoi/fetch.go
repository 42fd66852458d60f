package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/laxect/kosmos/store"
)

const lnForumRSS = "https://www.lightnovel.us/forum.php?mod=rss&fid=173"

type rssItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type rssChannel struct {
	Items []rssItem `xml:"channel>item"`
}

// parseThreadID extracts the numeric thread id from a canonical
// "thread-N-1-1.html" URL, the way the original's hand-offset slicing
// did for "https://www.lightnovel.us/thread-<id>-1-1.html" links.
func parseThreadID(link string) (uint32, error) {
	const prefix = "https://www.lightnovel.us/thread-"
	const suffix = "-1-1.html"
	if !strings.HasPrefix(link, prefix) || !strings.HasSuffix(link, suffix) {
		return 0, fmt.Errorf("aoi: link %q is not a canonical thread link", link)
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(link, prefix), suffix)
	id, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("aoi: parse thread id: %w", err)
	}
	return uint32(id), nil
}

// splitMemes breaks a forum post title on the same bracket/space
// delimiters the original keyword matcher split on.
func splitMemes(title string) []string {
	return strings.FieldsFunc(title, func(r rune) bool {
		switch r {
		case '[', ']', '(', ')', '【', '】', ' ':
			return true
		}
		return false
	})
}

func containsKeyword(keywordStore *store.Tree, title string) (bool, error) {
	for _, meme := range splitMemes(title) {
		ok, err := keywordStore.Contains([]byte(meme))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func httpGet(uri string) ([]byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(uri)
	if err != nil {
		return nil, fmt.Errorf("aoi: fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// fetchAndWatch polls the forum RSS feed, adding links whose title
// matches a tracked keyword to the "page" watch list. It returns one
// "<title> - <link>" line per item newly queued for watching this
// tick, for the cell pipeline's downstream stage to announce.
func fetchAndWatch(keywordStore, pageStore, configStore *store.Tree) ([]string, error) {
	body, err := httpGet(lnForumRSS)
	if err != nil {
		return nil, err
	}

	var channel rssChannel
	if err := xml.Unmarshal(body, &channel); err != nil {
		return nil, fmt.Errorf("aoi: parse rss: %w", err)
	}

	const lastIDKey = "update_id"
	lastID := uint32(0)
	if raw, ok, err := configStore.Get([]byte(lastIDKey)); err != nil {
		return nil, err
	} else if ok && len(raw) == 4 {
		lastID = uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	}

	newest := lastID
	var queued []string
	for _, item := range channel.Items {
		id, err := parseThreadID(item.Link)
		if err != nil {
			continue
		}
		if id <= lastID {
			continue
		}
		if id > newest {
			newest = id
		}
		matched, err := containsKeyword(keywordStore, item.Title)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		if err := pageStore.Insert([]byte(item.Link), watchedMarker); err != nil {
			return nil, err
		}
		queued = append(queued, fmt.Sprintf("%s - %s", item.Title, item.Link))
	}

	idBuf := []byte{byte(newest), byte(newest >> 8), byte(newest >> 16), byte(newest >> 24)}
	if err := configStore.Insert([]byte(lastIDKey), idBuf); err != nil {
		return nil, err
	}
	return queued, nil
}
