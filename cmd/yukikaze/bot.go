package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// bot is a minimal Telegram Bot API client: enough to push one text
// message to one chat, which is the only thing yukikaze's bridge ever
// needs to do.
type bot struct {
	token      string
	httpClient *http.Client
}

func newBot(token string) *bot {
	return &bot{
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *bot) action(name string) string {
	return fmt.Sprintf("https://api.telegram.org/bot%s/%s", b.token, name)
}

type sendMessageResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// sendMessage posts text to chatID, the way the original bridge's
// `send_message` call to the Telegram Bot API did.
func (b *bot) sendMessage(chatID int64, text string) error {
	form := url.Values{
		"chat_id": {fmt.Sprintf("%d", chatID)},
		"text":    {text},
	}
	resp, err := b.httpClient.PostForm(b.action("sendMessage"), form)
	if err != nil {
		return fmt.Errorf("yukikaze: telegram sendMessage: %w", err)
	}
	defer resp.Body.Close()

	var result sendMessageResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("yukikaze: decode telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("yukikaze: telegram api error: %s", strings.TrimSpace(result.Description))
	}
	return nil
}
