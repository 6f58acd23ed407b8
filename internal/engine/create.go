package engine

import (
	"context"
	"strings"

	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/draft"
	"github.com/mataroa-tools/matabot/internal/model"
	"github.com/mataroa-tools/matabot/internal/preview"
)

// cmdNew enters the creation flow. An unfinished draft resumes into
// body entry; "/new Title | Body" pre-fills and skips ahead.
func (e *Engine) cmdNew(ctx context.Context, uid model.UserID, ev chat.Event) {
	if !e.requirePrivate(ctx, ev) {
		return
	}
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	c := e.conv(uid)
	c.reset()

	if rec.HasDraft() {
		c.state = StateEnterBody
		text := msgResumeDraft + "\n\nTitle: " + rec.DraftTitle
		if body := draft.Snapshot(rec); body != "" {
			text += "\n\n" + preview.Truncate(body, rec.Settings.PreviewLength)
		}
		e.send(ctx, ev.ChatID, text, chat.SendOptions{Keyboard: draftingKeyboard()})
		return
	}

	title, body := splitNewArgs(ev.Args)
	if title == "" {
		c.state = StateEnterTitle
		e.send(ctx, ev.ChatID, msgAskTitle, chat.SendOptions{Keyboard: chat.Keyboard{cancelRow()}})
		return
	}

	rec.DraftTitle = title
	if body != "" {
		draft.Append(rec, body)
		e.persist(uid)
		c.state = StateChoosePublishMode
		e.send(ctx, ev.ChatID, msgChoosePublish, chat.SendOptions{Keyboard: publishChoiceKeyboard(rec.Settings.DefaultPublishMode)})
		return
	}
	e.persist(uid)
	c.state = StateEnterBody
	e.send(ctx, ev.ChatID, msgAskBody, chat.SendOptions{Keyboard: draftingKeyboard()})
}

// splitNewArgs parses the "/new Title | Body" fast path.
func splitNewArgs(args string) (title, body string) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", ""
	}
	if t, b, found := strings.Cut(args, "|"); found {
		return strings.TrimSpace(t), strings.TrimSpace(b)
	}
	return args, ""
}

func (e *Engine) textEnterTitle(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
	title := strings.TrimSpace(ev.Text)
	if title == "" || ev.Command != "" {
		e.sendPlain(ctx, ev.ChatID, msgTitleEmpty)
		return
	}
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		c.reset()
		return
	}
	rec.DraftTitle = title
	e.persist(uid)
	c.state = StateEnterBody
	e.send(ctx, ev.ChatID, msgAskBody, chat.SendOptions{Keyboard: draftingKeyboard()})
}

// textEnterBody accumulates body chunks and serves the in-flow
// commands (/done, /undo, /preview, /clear).
func (e *Engine) textEnterBody(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		c.reset()
		return
	}

	switch ev.Command {
	case "done":
		e.finishDraft(ctx, uid, ev, c, rec)
		return
	case "undo":
		if _, ok := draft.UndoLast(rec); !ok {
			e.sendPlain(ctx, ev.ChatID, msgNothingToUndo)
			return
		}
		e.persist(uid)
		e.sendPlain(ctx, ev.ChatID, msgChunkUndone)
		return
	case "clear":
		draft.Clear(rec)
		e.persist(uid)
		e.sendPlain(ctx, ev.ChatID, msgDraftCleared)
		return
	case "preview":
		body := draft.Snapshot(rec)
		text := e.renderer().RenderCreate(rec.DraftTitle, body, "")
		e.send(ctx, ev.ChatID, text, chat.SendOptions{Keyboard: draftingKeyboard(), Markdown: true})
		return
	case "":
	default:
		e.sendPlain(ctx, ev.ChatID, msgBodyEmpty)
		return
	}

	if !draft.Append(rec, ev.Text) {
		e.sendPlain(ctx, ev.ChatID, msgBodyEmpty)
		return
	}
	e.persist(uid)
	e.sendPlain(ctx, ev.ChatID, msgChunkAdded)
}

func (e *Engine) finishDraft(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation, rec *model.UserRecord) {
	if len(rec.DraftParts) == 0 {
		e.sendPlain(ctx, ev.ChatID, msgNoBodyYet)
		return
	}
	c.state = StateChoosePublishMode
	e.send(ctx, ev.ChatID, msgChoosePublish, chat.SendOptions{Keyboard: publishChoiceKeyboard(rec.Settings.DefaultPublishMode)})
}

func (e *Engine) cbDraftDone(ctx context.Context, uid model.UserID, ev chat.Event) {
	c := e.conv(uid)
	if c.state != StateEnterBody {
		e.ack(ctx, ev, msgStaleRef)
		return
	}
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.ack(ctx, ev, "")
	if len(rec.DraftParts) == 0 {
		e.sendPlain(ctx, ev.ChatID, msgNoBodyYet)
		return
	}
	c.state = StateChoosePublishMode
	e.edit(ctx, ev.Ref, msgChoosePublish, chat.SendOptions{Keyboard: publishChoiceKeyboard(rec.Settings.DefaultPublishMode)})
}

func (e *Engine) cbDraftUndo(ctx context.Context, uid model.UserID, ev chat.Event) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	if _, done := draft.UndoLast(rec); !done {
		e.ack(ctx, ev, msgNothingToUndo)
		return
	}
	e.persist(uid)
	e.ack(ctx, ev, msgChunkUndone)
}

func (e *Engine) cbDraftClear(ctx context.Context, uid model.UserID, ev chat.Event) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	draft.Clear(rec)
	e.persist(uid)
	e.ack(ctx, ev, "")
	e.sendPlain(ctx, ev.ChatID, msgDraftCleared)
}

// cbDraftPreview renders the accumulated draft without leaving body
// entry, same as the /preview command.
func (e *Engine) cbDraftPreview(ctx context.Context, uid model.UserID, ev chat.Event) {
	c := e.conv(uid)
	if c.state != StateEnterBody {
		e.ack(ctx, ev, msgStaleRef)
		return
	}
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.ack(ctx, ev, "")
	text := e.renderer().RenderCreate(rec.DraftTitle, draft.Snapshot(rec), "")
	e.send(ctx, ev.ChatID, text, chat.SendOptions{Keyboard: draftingKeyboard(), Markdown: true})
}

func (e *Engine) cbTemplate(ctx context.Context, uid model.UserID, ev chat.Event, name string) {
	c := e.conv(uid)
	if c.state != StateEnterBody {
		e.ack(ctx, ev, msgStaleRef)
		return
	}
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	if !draft.InsertTemplate(rec, name) {
		e.ack(ctx, ev, msgUnknownTmpl)
		return
	}
	e.persist(uid)
	e.ack(ctx, ev, msgChunkAdded)
}

// cbPublishChoice handles the draft/publish decision for both the
// create and update flows; the state decides which.
func (e *Engine) cbPublishChoice(ctx context.Context, uid model.UserID, ev chat.Event, publish bool) {
	c := e.conv(uid)
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.ack(ctx, ev, "")

	switch c.state {
	case StateChoosePublishMode:
		if publish {
			c.publishedAt = e.today()
		} else {
			c.publishedAt = ""
		}
		c.state = StateConfirmCreate
		text := e.renderer().RenderCreate(rec.DraftTitle, draft.Snapshot(rec), c.publishedAt)
		e.edit(ctx, ev.Ref, text, chat.SendOptions{Keyboard: submitKeyboard(), Markdown: true})
	case StateChoosePublishModeForUpdate:
		if publish {
			// Keep the original publish date when the post already had
			// one.
			if c.publishedAt == "" {
				c.publishedAt = e.today()
			}
		} else {
			c.publishedAt = ""
		}
		c.state = StateConfirmUpdate
		e.showUpdatePreview(ctx, ev.Ref, c)
	default:
		e.ack(ctx, ev, msgStaleRef)
	}
}

// cbSubmit confirms whichever preview is on screen.
func (e *Engine) cbSubmit(ctx context.Context, uid model.UserID, ev chat.Event) {
	c := e.conv(uid)
	switch c.state {
	case StateConfirmCreate:
		e.submitCreate(ctx, uid, ev, c)
	case StateConfirmUpdate:
		e.submitUpdate(ctx, uid, ev, c)
	default:
		e.ack(ctx, ev, msgStaleRef)
	}
}

func (e *Engine) submitCreate(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.ack(ctx, ev, "")
	e.chat.SendTyping(ctx, ev.ChatID)

	payload := model.PostPayload{
		Title: rec.DraftTitle,
		Body:  draft.Snapshot(rec),
	}
	if c.publishedAt != "" {
		date := c.publishedAt
		payload.PublishedAt = &date
	}
	action := model.LastAction{Kind: model.ActionCreate, Payload: &payload}
	c.reset()
	e.performAction(ctx, uid, ev.Ref, rec, action)
}
