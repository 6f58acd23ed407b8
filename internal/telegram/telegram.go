// Package telegram implements chat.Platform over the Telegram Bot API
// with plain HTTP long polling.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mataroa-tools/matabot/internal/chat"
)

var tgLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	tgLogger = l
}

// Bot is a minimal Telegram Bot API client.
type Bot struct {
	baseURL     string
	http        *http.Client
	pollTimeout int // seconds, passed to getUpdates
}

func New(token string, pollTimeoutSecs int) *Bot {
	return &Bot{
		baseURL: "https://api.telegram.org/bot" + token + "/",
		// Long poll requests block server side for pollTimeout, so the
		// client deadline must exceed it.
		http:        &http.Client{Timeout: time.Duration(pollTimeoutSecs+10) * time.Second},
		pollTimeout: pollTimeoutSecs,
	}
}

type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (b *Bot) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s params: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if err != nil {
		return err
	}
	var env apiEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !env.OK {
		return fmt.Errorf("%s rejected: %s", method, env.Description)
	}
	if result != nil {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// Wire types, limited to the fields the bot actually reads.

type tgUser struct {
	ID int64 `json:"id"`
}

type tgChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type tgMessage struct {
	MessageID int64   `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      tgChat  `json:"chat"`
	Text      string  `json:"text"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

type tgUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

func keyboardMarkup(kb chat.Keyboard) any {
	if len(kb) == 0 {
		return nil
	}
	type btn struct {
		Text string `json:"text"`
		Data string `json:"callback_data,omitempty"`
		URL  string `json:"url,omitempty"`
	}
	rows := make([][]btn, 0, len(kb))
	for _, row := range kb {
		out := make([]btn, 0, len(row))
		for _, b := range row {
			out = append(out, btn{Text: b.Label, Data: b.Data, URL: b.URL})
		}
		rows = append(rows, out)
	}
	return map[string]any{"inline_keyboard": rows}
}

func (b *Bot) Send(ctx context.Context, chatID int64, text string, opts chat.SendOptions) (chat.MessageRef, error) {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if opts.Markdown {
		params["parse_mode"] = "MarkdownV2"
	}
	if opts.DisableLinkPreview {
		params["disable_web_page_preview"] = true
	}
	if mk := keyboardMarkup(opts.Keyboard); mk != nil {
		params["reply_markup"] = mk
	}
	var msg tgMessage
	if err := b.call(ctx, "sendMessage", params, &msg); err != nil {
		return chat.MessageRef{}, err
	}
	return chat.MessageRef{ChatID: chatID, MessageID: msg.MessageID}, nil
}

func (b *Bot) Edit(ctx context.Context, ref chat.MessageRef, text string, opts chat.SendOptions) error {
	params := map[string]any{
		"chat_id":    ref.ChatID,
		"message_id": ref.MessageID,
		"text":       text,
	}
	if opts.Markdown {
		params["parse_mode"] = "MarkdownV2"
	}
	if opts.DisableLinkPreview {
		params["disable_web_page_preview"] = true
	}
	if mk := keyboardMarkup(opts.Keyboard); mk != nil {
		params["reply_markup"] = mk
	}
	err := b.call(ctx, "editMessageText", params, nil)
	// Editing a message to its current content is not an error worth
	// surfacing.
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	params := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		params["text"] = text
	}
	return b.call(ctx, "answerCallbackQuery", params, nil)
}

func (b *Bot) SendTyping(ctx context.Context, chatID int64) {
	params := map[string]any{"chat_id": chatID, "action": "typing"}
	if err := b.call(ctx, "sendChatAction", params, nil); err != nil {
		tgLogger.Debug().Err(err).Int64("chat_id", chatID).Msg("Typing indicator failed")
	}
}

// parseCommand splits a leading "/cmd@botname args" into command and
// remainder. Returns an empty command for ordinary text.
func parseCommand(text string) (cmd, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	rest := text[1:]
	sp := strings.IndexAny(rest, " \n")
	if sp < 0 {
		cmd = rest
	} else {
		cmd, args = rest[:sp], strings.TrimSpace(rest[sp+1:])
	}
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), args
}

func toEvent(u tgUpdate) (chat.Event, bool) {
	if u.CallbackQuery != nil {
		cq := u.CallbackQuery
		ev := chat.Event{
			UserID:       cq.From.ID,
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.Private = cq.Message.Chat.Type == "private"
			ev.Ref = chat.MessageRef{ChatID: cq.Message.Chat.ID, MessageID: cq.Message.MessageID}
		}
		return ev, true
	}
	if u.Message != nil && u.Message.From != nil {
		m := u.Message
		cmd, args := parseCommand(m.Text)
		return chat.Event{
			UserID:  m.From.ID,
			ChatID:  m.Chat.ID,
			Private: m.Chat.Type == "private",
			Text:    m.Text,
			Command: cmd,
			Args:    args,
		}, true
	}
	return chat.Event{}, false
}

// Poll long-polls getUpdates until ctx is cancelled, invoking handle
// for each translated event. Handler panics are contained so one bad
// update cannot take the loop down.
func (b *Bot) Poll(ctx context.Context, handle func(chat.Event)) error {
	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		params := map[string]any{
			"offset":          offset,
			"timeout":         b.pollTimeout,
			"allowed_updates": []string{"message", "callback_query"},
		}
		var updates []tgUpdate
		if err := b.call(ctx, "getUpdates", params, &updates); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			tgLogger.Warn().Err(err).Msg("getUpdates failed, backing off")
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			ev, ok := toEvent(u)
			if !ok {
				continue
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						tgLogger.Error().Interface("panic", r).Int64("user_id", ev.UserID).Msg("Handler panicked")
					}
				}()
				handle(ev)
			}()
		}
	}
}
