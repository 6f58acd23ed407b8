package engine

import (
	"context"

	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/model"
)

// performAction is the single submission path for every mutating call.
// The action is persisted before the call so a retry control can
// replay it verbatim, and cleared only on success. Both first attempts
// and retries go through here, which is what makes a retry
// byte-for-byte identical to the original attempt.
func (e *Engine) performAction(ctx context.Context, uid model.UserID, ref chat.MessageRef, rec *model.UserRecord, action model.LastAction) {
	rec.LastAction = action
	e.persist(uid)

	var (
		success string
		err     error
	)
	switch action.Kind {
	case model.ActionCreate:
		var post model.Post
		post, err = e.api.Create(ctx, rec.APIKey, *action.Payload)
		if err == nil {
			rec.ClearDraft()
			if post.Published() || action.Payload.PublishedAt != nil {
				success = "Published!"
			} else {
				success = "Saved as a draft."
			}
			if post.URL != "" {
				success += "\n" + post.URL
			}
		}
	case model.ActionUpdate:
		var post model.Post
		post, err = e.api.Update(ctx, rec.APIKey, action.Slug, *action.Payload)
		if err == nil {
			success = "Updated."
			if post.URL != "" {
				success += "\n" + post.URL
			}
			if action.Payload.Slug != "" && action.Payload.Slug != action.Slug {
				e.tokensFor(uid).Drop(action.Slug)
			}
		}
	case model.ActionTogglePublish:
		_, err = e.api.Update(ctx, rec.APIKey, action.Slug, *action.Payload)
		if err == nil {
			if action.Payload.PublishedAt != nil {
				success = "Published."
			} else {
				success = "Unpublished, it is a draft again."
			}
		}
	case model.ActionDelete:
		err = e.api.Delete(ctx, rec.APIKey, action.Slug)
		if err == nil {
			success = "Deleted."
			e.tokensFor(uid).Drop(action.Slug)
		}
	default:
		e.edit(ctx, ref, msgNothingToRetry, chat.SendOptions{})
		return
	}

	if err != nil {
		engineLogger.Warn().Err(err).
			Str("action", string(action.Kind)).
			Int64("user_id", int64(uid)).
			Msg("Submission failed")
		e.edit(ctx, ref, "That did not work: "+err.Error(), chat.SendOptions{Keyboard: retryKeyboard()})
		return
	}

	rec.LastAction = model.LastAction{}
	e.persist(uid)
	e.posts.Invalidate(uid)
	engineLogger.Info().
		Str("action", string(action.Kind)).
		Str("slug", action.Slug).
		Int64("user_id", int64(uid)).
		Msg("Submission succeeded")
	e.edit(ctx, ref, success, chat.SendOptions{DisableLinkPreview: true})
}

// cbRetry replays the stored last action without re-prompting.
func (e *Engine) cbRetry(ctx context.Context, uid model.UserID, ev chat.Event) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	if rec.LastAction.IsZero() {
		e.ack(ctx, ev, msgNothingToRetry)
		return
	}
	e.ack(ctx, ev, "")
	e.chat.SendTyping(ctx, ev.Ref.ChatID)
	e.performAction(ctx, uid, ev.Ref, rec, rec.LastAction)
}
