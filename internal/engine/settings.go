package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/model"
)

func settingsText(s model.Settings) string {
	mode := "save as draft"
	if s.DefaultPublishMode == model.ModePublish {
		mode = "publish now"
	}
	confirm := "off"
	if s.ConfirmBeforeDelete {
		confirm = "on"
	}
	return fmt.Sprintf(
		"Your settings:\n\nDefault publish mode: %s\nList preview length: %d characters\nConfirm before delete: %s",
		mode, s.PreviewLength, confirm)
}

func (e *Engine) cmdSettings(ctx context.Context, uid model.UserID, ev chat.Event) {
	if !e.requirePrivate(ctx, ev) {
		return
	}
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.send(ctx, ev.ChatID, settingsText(rec.Settings), chat.SendOptions{Keyboard: settingsKeyboard(rec.Settings)})
}

// cbSettingsToggle flips the default-publish-mode or confirm-delete
// setting and re-renders the settings message in place.
func (e *Engine) cbSettingsToggle(ctx context.Context, uid model.UserID, ev chat.Event, which string) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	switch which {
	case cbSetMode:
		if rec.Settings.DefaultPublishMode == model.ModePublish {
			rec.Settings.DefaultPublishMode = model.ModeDraft
		} else {
			rec.Settings.DefaultPublishMode = model.ModePublish
		}
	case cbSetConfirm:
		rec.Settings.ConfirmBeforeDelete = !rec.Settings.ConfirmBeforeDelete
	}
	e.persist(uid)
	e.ack(ctx, ev, "")
	e.edit(ctx, ev.Ref, settingsText(rec.Settings), chat.SendOptions{Keyboard: settingsKeyboard(rec.Settings)})
}

func (e *Engine) cbSettingsPreview(ctx context.Context, uid model.UserID, ev chat.Event, arg string) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || !model.AllowedPreviewLengths[n] {
		e.ack(ctx, ev, msgStaleRef)
		return
	}
	rec.Settings.PreviewLength = n
	e.persist(uid)
	e.ack(ctx, ev, "")
	e.edit(ctx, ev.Ref, settingsText(rec.Settings), chat.SendOptions{Keyboard: settingsKeyboard(rec.Settings)})
}
