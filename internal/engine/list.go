package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/listview"
	"github.com/mataroa-tools/matabot/internal/model"
	"github.com/mataroa-tools/matabot/internal/preview"
)

// fetchPosts serves the user's posts from the TTL cache, hitting the
// API only when the snapshot is missing or expired.
func (e *Engine) fetchPosts(ctx context.Context, uid model.UserID, apiKey string, force bool) ([]model.Post, error) {
	if force {
		e.posts.Invalidate(uid)
	} else if cached, ok := e.posts.Get(uid); ok {
		return cached, nil
	}
	posts, err := e.api.List(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	e.posts.Set(uid, posts)
	return posts, nil
}

func (e *Engine) cmdList(ctx context.Context, uid model.UserID, ev chat.Event, filter listview.Filter, query string) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	c := e.conv(uid)
	c.list.SetFilter(filter)
	c.list.Query = query
	e.chat.SendTyping(ctx, ev.ChatID)
	e.showList(ctx, uid, ev.ChatID, chat.MessageRef{}, rec, c, false)
}

// showList renders the current list page, either as a fresh message or
// editing an existing one in place.
func (e *Engine) showList(ctx context.Context, uid model.UserID, chatID int64, ref chat.MessageRef, rec *model.UserRecord, c *conversation, force bool) {
	posts, err := e.fetchPosts(ctx, uid, rec.APIKey, force)
	if err != nil {
		engineLogger.Warn().Err(err).Int64("user_id", int64(uid)).Msg("Could not list posts")
		text := "Could not fetch your posts: " + err.Error()
		if ref != (chat.MessageRef{}) {
			e.edit(ctx, ref, text, chat.SendOptions{})
		} else {
			e.sendPlain(ctx, chatID, text)
		}
		return
	}

	page := listview.Paginate(posts, c.list, e.cfg.PageSize)
	c.list.Page = page.Number

	text := e.renderListText(page, c.list, rec.Settings.PreviewLength)
	tokens := e.tokensFor(uid)
	opts := chat.SendOptions{
		Keyboard:           listKeyboard(page, c.list, tokens.ForSlug),
		Markdown:           true,
		DisableLinkPreview: true,
	}
	if ref != (chat.MessageRef{}) {
		e.edit(ctx, ref, text, opts)
	} else {
		e.send(ctx, chatID, text, opts)
	}
}

func (e *Engine) renderListText(page listview.Page, st listview.State, previewLen int) string {
	if page.Total == 0 {
		return preview.Escape(msgNoPosts)
	}
	var b strings.Builder
	header := "Your posts"
	switch st.Filter {
	case listview.FilterPublished:
		header = "Your published posts"
	case listview.FilterDrafts:
		header = "Your drafts"
	}
	if st.Query != "" {
		header += " matching \"" + st.Query + "\""
	}
	b.WriteString("*" + preview.Escape(header) + "*\n")
	b.WriteString(preview.Escape(fmt.Sprintf("(%d total, page %d of %d)", page.Total, page.Number, page.TotalPages)))
	b.WriteString("\n")
	for _, p := range page.Items {
		marker := "[draft]"
		if p.Published() {
			marker = "[live]"
		}
		b.WriteString("\n" + preview.Escape(marker) + " *" + preview.Escape(p.Title) + "*\n")
		b.WriteString(preview.Escape(p.Slug) + "\n")
		if body := strings.TrimSpace(p.Body); body != "" {
			b.WriteString(preview.Escape(preview.Truncate(body, previewLen)) + "\n")
		}
	}
	return b.String()
}

func (e *Engine) cbListFilter(ctx context.Context, uid model.UserID, ev chat.Event, filter string) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	c := e.conv(uid)
	c.list.SetFilter(listview.ParseFilter(filter))
	e.ack(ctx, ev, "")
	e.showList(ctx, uid, ev.Ref.ChatID, ev.Ref, rec, c, false)
}

func (e *Engine) cbListPage(ctx context.Context, uid model.UserID, ev chat.Event, pageArg string) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	page, err := strconv.Atoi(pageArg)
	if err != nil {
		e.ack(ctx, ev, msgStaleRef)
		return
	}
	c := e.conv(uid)
	c.list.Page = page
	e.ack(ctx, ev, "")
	e.showList(ctx, uid, ev.Ref.ChatID, ev.Ref, rec, c, false)
}

func (e *Engine) cbListRefresh(ctx context.Context, uid model.UserID, ev chat.Event) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.ack(ctx, ev, "Refreshed")
	e.showList(ctx, uid, ev.Ref.ChatID, ev.Ref, rec, e.conv(uid), true)
}

func (e *Engine) cbListBack(ctx context.Context, uid model.UserID, ev chat.Event) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.ack(ctx, ev, "")
	e.showList(ctx, uid, ev.Ref.ChatID, ev.Ref, rec, e.conv(uid), false)
}

// cbManage opens the per-post management view.
func (e *Engine) cbManage(ctx context.Context, uid model.UserID, ev chat.Event, tok string) {
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

	post, err := e.findPost(ctx, uid, rec, slug)
	if err != nil {
		e.edit(ctx, ev.Ref, msgStaleRef, chat.SendOptions{})
		return
	}

	status := "draft"
	if post.Published() {
		status = "published " + post.PublishedAt
	}
	var b strings.Builder
	b.WriteString("*" + preview.Escape(post.Title) + "*\n")
	b.WriteString(preview.Escape(post.Slug) + " · " + preview.Escape(status) + "\n\n")
	if body := strings.TrimSpace(post.Body); body != "" {
		b.WriteString(preview.Escape(preview.Truncate(body, rec.Settings.PreviewLength)))
	}
	e.edit(ctx, ev.Ref, b.String(), chat.SendOptions{
		Keyboard:           manageKeyboard(e.tokensFor(uid).ForSlug(post.Slug), post.Published(), post.URL),
		Markdown:           true,
		DisableLinkPreview: true,
	})
}

// findPost looks the slug up in the cached snapshot before falling
// back to a direct fetch.
func (e *Engine) findPost(ctx context.Context, uid model.UserID, rec *model.UserRecord, slug string) (model.Post, error) {
	if posts, ok := e.posts.Get(uid); ok {
		for _, p := range posts {
			if p.Slug == slug {
				return p, nil
			}
		}
	}
	return e.api.Get(ctx, rec.APIKey, slug)
}
