package engine

import (
	"context"
	"strings"

	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/model"
	"github.com/mataroa-tools/matabot/internal/token"
)

// cmdEdit enters the update flow, optionally with a slug argument.
func (e *Engine) cmdEdit(ctx context.Context, uid model.UserID, ev chat.Event) {
	if !e.requirePrivate(ctx, ev) {
		return
	}
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	c := e.conv(uid)
	c.reset()

	slug := strings.TrimSpace(ev.Args)
	if slug == "" {
		c.state = StateEnterUpdateSlug
		e.send(ctx, ev.ChatID, msgAskUpdateSlug, chat.SendOptions{Keyboard: chat.Keyboard{cancelRow()}})
		return
	}
	e.beginUpdate(ctx, uid, ev, c, rec, slug)
}

func (e *Engine) textEnterUpdateSlug(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		c.reset()
		return
	}
	slug := strings.TrimSpace(ev.Text)
	if !token.IsValidSlug(slug) {
		e.sendPlain(ctx, ev.ChatID, msgSlugInvalid)
		return
	}
	e.beginUpdate(ctx, uid, ev, c, rec, slug)
}

// cbEditPost enters the update flow from a manage view control.
func (e *Engine) cbEditPost(ctx context.Context, uid model.UserID, ev chat.Event, tok string) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	slug, ok := e.tokensFor(uid).Resolve(tok)
	if !ok {
		e.ack(ctx, ev, msgStaleRef)
		return
	}
	e.ack(ctx, ev, "")
	c := e.conv(uid)
	c.reset()
	e.beginUpdate(ctx, uid, ev, c, rec, slug)
}

// beginUpdate fetches the current post and moves to title entry.
func (e *Engine) beginUpdate(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation, rec *model.UserRecord, slug string) {
	e.chat.SendTyping(ctx, ev.ChatID)
	post, err := e.api.Get(ctx, rec.APIKey, slug)
	if err != nil {
		engineLogger.Warn().Err(err).Str("slug", slug).Int64("user_id", int64(uid)).Msg("Could not fetch post for editing")
		c.reset()
		e.sendPlain(ctx, ev.ChatID, msgStaleRef)
		return
	}

	c.state = StateEnterUpdatedTitle
	c.currentSlug = post.Slug
	c.title = post.Title
	c.body = post.Body
	c.publishedAt = post.PublishedAt
	c.slugSync = false

	e.send(ctx, ev.ChatID,
		"Editing \""+post.Title+"\" ("+post.Slug+").\n"+msgAskNewTitle,
		chat.SendOptions{Keyboard: chat.Keyboard{cancelRow()}})
}

func (e *Engine) textEnterUpdatedTitle(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
	if ev.Command == "skip" {
		c.suggestedSlug = c.currentSlug
		c.state = StateEnterUpdatedBody
		e.send(ctx, ev.ChatID, msgAskNewBody, chat.SendOptions{Keyboard: chat.Keyboard{cancelRow()}})
		return
	}
	title := strings.TrimSpace(ev.Text)
	if title == "" || ev.Command != "" {
		e.sendPlain(ctx, ev.ChatID, msgTitleEmpty)
		return
	}
	c.title = title
	if s := token.Slugify(title); s != "" {
		c.suggestedSlug = s
	} else {
		c.suggestedSlug = c.currentSlug
	}
	c.state = StateEnterUpdatedBody
	e.send(ctx, ev.ChatID, msgAskNewBody, chat.SendOptions{Keyboard: chat.Keyboard{cancelRow()}})
}

func (e *Engine) textEnterUpdatedBody(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		c.reset()
		return
	}
	if ev.Command != "skip" {
		body := strings.TrimSpace(ev.Text)
		if body == "" || ev.Command != "" {
			e.sendPlain(ctx, ev.ChatID, msgBodyEmpty)
			return
		}
		c.body = ev.Text
	}
	c.state = StateChoosePublishModeForUpdate
	e.send(ctx, ev.ChatID, msgChoosePublish, chat.SendOptions{Keyboard: publishChoiceKeyboard(rec.Settings.DefaultPublishMode)})
}

func (e *Engine) showUpdatePreview(ctx context.Context, ref chat.MessageRef, c *conversation) {
	text := e.renderer().RenderUpdate(c.title, c.body, c.publishedAt, c.currentSlug, c.suggestedSlug, c.slugSync)
	e.edit(ctx, ref, text, chat.SendOptions{Keyboard: submitUpdateKeyboard(c.slugSync), Markdown: true})
}

// cbSlugSync flips whether submitting renames the post to the slug
// derived from its new title.
func (e *Engine) cbSlugSync(ctx context.Context, uid model.UserID, ev chat.Event) {
	c := e.conv(uid)
	if c.state != StateConfirmUpdate {
		e.ack(ctx, ev, msgStaleRef)
		return
	}
	c.slugSync = !c.slugSync
	e.ack(ctx, ev, "")
	e.showUpdatePreview(ctx, ev.Ref, c)
}

func (e *Engine) submitUpdate(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.ack(ctx, ev, "")
	e.chat.SendTyping(ctx, ev.ChatID)

	payload := model.PostPayload{
		Title: c.title,
		Body:  c.body,
	}
	if c.publishedAt != "" {
		date := c.publishedAt
		payload.PublishedAt = &date
	}
	if c.slugSync && c.suggestedSlug != "" && c.suggestedSlug != c.currentSlug {
		payload.Slug = c.suggestedSlug
	}
	action := model.LastAction{Kind: model.ActionUpdate, Slug: c.currentSlug, Payload: &payload}
	c.reset()
	e.performAction(ctx, uid, ev.Ref, rec, action)
}

// cbTogglePublish flips a post between draft and published from the
// manage view. It re-reads the post first so the toggle is computed
// from current state, not a stale snapshot.
func (e *Engine) cbTogglePublish(ctx context.Context, uid model.UserID, ev chat.Event, tok string) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	slug, ok := e.tokensFor(uid).Resolve(tok)
	if !ok {
		e.ack(ctx, ev, msgStaleRef)
		return
	}
	e.ack(ctx, ev, "")
	e.chat.SendTyping(ctx, ev.ChatID)

	post, err := e.api.Get(ctx, rec.APIKey, slug)
	if err != nil {
		engineLogger.Warn().Err(err).Str("slug", slug).Msg("Could not fetch post for publish toggle")
		e.sendPlain(ctx, ev.Ref.ChatID, msgStaleRef)
		return
	}

	payload := model.PostPayload{}
	if !post.Published() {
		date := e.today()
		payload.PublishedAt = &date
	}
	action := model.LastAction{Kind: model.ActionTogglePublish, Slug: slug, Payload: &payload}
	e.performAction(ctx, uid, ev.Ref, rec, action)
}
