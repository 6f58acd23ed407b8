package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/model"
	"github.com/mataroa-tools/matabot/internal/schedule"
	"github.com/mataroa-tools/matabot/internal/token"
)

// cmdDelete enters the deletion flow, optionally with a slug argument.
func (e *Engine) cmdDelete(ctx context.Context, uid model.UserID, ev chat.Event) {
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
		c.state = StateEnterDeleteSlug
		e.send(ctx, ev.ChatID, msgAskDeleteSlug, chat.SendOptions{Keyboard: chat.Keyboard{cancelRow()}})
		return
	}
	if !token.IsValidSlug(slug) {
		e.sendPlain(ctx, ev.ChatID, msgSlugInvalid)
		return
	}
	e.requestDelete(ctx, uid, ev, c, rec, slug, chat.MessageRef{})
}

func (e *Engine) textEnterDeleteSlug(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
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
	e.requestDelete(ctx, uid, ev, c, rec, slug, chat.MessageRef{})
}

// cbDeletePost starts a deletion from the manage view.
func (e *Engine) cbDeletePost(ctx context.Context, uid model.UserID, ev chat.Event, tok string) {
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
	e.requestDelete(ctx, uid, ev, c, rec, slug, ev.Ref)
}

// requestDelete either asks for confirmation or schedules right away,
// per the user's confirm-before-delete setting. ref, when set, is the
// message to repurpose as the confirmation/countdown surface.
func (e *Engine) requestDelete(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation, rec *model.UserRecord, slug string, ref chat.MessageRef) {
	tok := e.tokensFor(uid).ForSlug(slug)
	if rec.Settings.ConfirmBeforeDelete {
		c.state = StateConfirmDelete
		c.deleteSlug = slug
		text := "Delete \"" + slug + "\"?"
		opts := chat.SendOptions{Keyboard: confirmDeleteKeyboard(tok)}
		if ref != (chat.MessageRef{}) {
			e.edit(ctx, ref, text, opts)
		} else {
			e.send(ctx, ev.ChatID, text, opts)
		}
		return
	}
	c.reset()
	e.scheduleDelete(ctx, uid, rec, slug, ev.ChatID, ref)
}

// cbConfirmDelete is the explicit "yes" on the confirmation prompt.
func (e *Engine) cbConfirmDelete(ctx context.Context, uid model.UserID, ev chat.Event, tok string) {
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
	e.conv(uid).reset()
	e.scheduleDelete(ctx, uid, rec, slug, ev.Ref.ChatID, ev.Ref)
}

// scheduleDelete persists the action, replaces any pending deletion
// for the same slug, and arms the grace timer. The countdown message
// carries the undo control and is edited in place when the timer
// fires.
func (e *Engine) scheduleDelete(ctx context.Context, uid model.UserID, rec *model.UserRecord, slug string, chatID int64, ref chat.MessageRef) {
	// Persisted before arming, so a restart during the grace window
	// still leaves the action replayable via retry.
	rec.LastAction = model.LastAction{Kind: model.ActionDelete, Slug: slug}
	e.persist(uid)

	tok := e.tokensFor(uid).ForSlug(slug)
	grace := e.cfg.DeleteGrace
	text := fmt.Sprintf("Deleting \"%s\" in %d seconds.", slug, int(grace/time.Second))
	opts := chat.SendOptions{Keyboard: undoDeleteKeyboard(tok)}
	if ref != (chat.MessageRef{}) {
		e.edit(ctx, ref, text, opts)
	} else {
		ref = e.send(ctx, chatID, text, opts)
	}

	e.mu.Lock()
	if e.pending[uid] == nil {
		e.pending[uid] = make(map[string]pendingDelete)
	}
	if prior, ok := e.pending[uid][slug]; ok {
		// Replace, never stack: one pending deletion per slug.
		e.sched.Cancel(prior.handle)
	}
	finalRef := ref
	// The closure reads handle after Schedule returns; executeDelete
	// cannot get past sessionMu until the scheduling turn is done, so
	// the read is ordered after the write even for a zero grace.
	var handle schedule.Handle
	handle = e.sched.Schedule(grace, func() {
		e.executeDelete(uid, slug, handle, finalRef)
	})
	e.pending[uid][slug] = pendingDelete{handle: handle, ref: ref}
	e.mu.Unlock()

	engineLogger.Info().Str("slug", slug).Int64("user_id", int64(uid)).Dur("grace", grace).Msg("Deletion scheduled")
}

// executeDelete runs on the scheduler goroutine when the grace window
// expires. It takes the turn lock so record mutation and persistence
// never overlap with the event loop.
func (e *Engine) executeDelete(uid model.UserID, slug string, h schedule.Handle, ref chat.MessageRef) {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()

	e.mu.Lock()
	pd, ok := e.pending[uid][slug]
	// Claim only our own job: a replacement scheduled while this timer
	// was firing owns the entry and its own fresh grace window.
	ok = ok && pd.handle == h
	if ok {
		delete(e.pending[uid], slug)
	}
	e.mu.Unlock()
	if !ok {
		// Undone or replaced between firing and getting the lock.
		return
	}

	rec, found := e.record(uid)
	if !found {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	e.performAction(ctx, uid, ref, rec, model.LastAction{Kind: model.ActionDelete, Slug: slug})
}

// cbUndoDelete cancels a pending deletion inside the grace window.
// Once the delete has started executing it reports too-late rather
// than racing it.
func (e *Engine) cbUndoDelete(ctx context.Context, uid model.UserID, ev chat.Event, tok string) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	slug, ok := e.tokensFor(uid).Resolve(tok)
	if !ok {
		e.ack(ctx, ev, msgStaleRef)
		return
	}

	// Cancel is the authority: if the timer already started executing,
	// the pending entry is left for executeDelete to claim and the
	// user hears "too late" instead of racing the delete.
	e.mu.Lock()
	pd, found := e.pending[uid][slug]
	cancelled := found && e.sched.Cancel(pd.handle)
	if cancelled {
		delete(e.pending[uid], slug)
	}
	e.mu.Unlock()

	if !cancelled {
		e.ack(ctx, ev, msgDeleteTooLate)
		return
	}

	if rec.LastAction.Kind == model.ActionDelete && rec.LastAction.Slug == slug {
		rec.LastAction = model.LastAction{}
		e.persist(uid)
	}
	e.ack(ctx, ev, msgDeleteCancelled)
	e.edit(ctx, ev.Ref, msgDeleteCancelled, chat.SendOptions{})
	engineLogger.Info().Str("slug", slug).Int64("user_id", int64(uid)).Msg("Deletion cancelled")
}
