// Package engine is the interactive session core: it owns the per-user
// conversation state machine and dispatches inbound chat events to the
// drafting, updating, deleting, browsing and settings flows.
package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mataroa-tools/matabot/internal/allowlist"
	"github.com/mataroa-tools/matabot/internal/cache"
	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/listview"
	"github.com/mataroa-tools/matabot/internal/model"
	"github.com/mataroa-tools/matabot/internal/preview"
	"github.com/mataroa-tools/matabot/internal/schedule"
	"github.com/mataroa-tools/matabot/internal/store"
	"github.com/mataroa-tools/matabot/internal/token"
)

var engineLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	engineLogger = l
}

// Publisher is the remote publishing API as the engine consumes it.
type Publisher interface {
	Create(ctx context.Context, apiKey string, payload model.PostPayload) (model.Post, error)
	Get(ctx context.Context, apiKey, slug string) (model.Post, error)
	Update(ctx context.Context, apiKey, slug string, payload model.PostPayload) (model.Post, error)
	Delete(ctx context.Context, apiKey, slug string) error
	List(ctx context.Context, apiKey string) ([]model.Post, error)
}

// Config are the engine tunables, normally sourced from the app config.
type Config struct {
	PageSize      int
	PostsCacheTTL time.Duration
	PreviewMax    int
	Cooldown      time.Duration
	DeleteGrace   time.Duration
}

// pendingDelete is one armed grace-window deletion.
type pendingDelete struct {
	handle schedule.Handle
	ref    chat.MessageRef
}

// Engine drives all user interaction. Events arrive sequentially from
// the platform poll loop, but deletion timers fire on their own
// goroutines: sessionMu serializes whole turns (one event, or one
// expired timer) so user records and the store are only ever mutated
// by one goroutine at a time. mu covers the pending and conversation
// maps at a finer grain for the handoff between the two.
type Engine struct {
	cfg   Config
	store store.Store
	api   Publisher
	chat  chat.Platform
	sched schedule.Scheduler
	allow *allowlist.List

	sessionMu sync.Mutex

	mu      sync.Mutex
	convs   map[model.UserID]*conversation
	pending map[model.UserID]map[string]pendingDelete

	tokens  *cache.Cache[model.UserID, *token.Registry]
	lastTap *cache.Cache[model.UserID, time.Time]
	posts   *cache.TTLCache[model.UserID, model.Post]

	// now is swappable in tests.
	now func() time.Time
}

func New(cfg Config, st store.Store, api Publisher, platform chat.Platform, sched schedule.Scheduler, allow *allowlist.List) *Engine {
	return &Engine{
		cfg:     cfg,
		store:   st,
		api:     api,
		chat:    platform,
		sched:   sched,
		allow:   allow,
		convs:   make(map[model.UserID]*conversation),
		pending: make(map[model.UserID]map[string]pendingDelete),
		tokens:  cache.NewCache[model.UserID, *token.Registry](),
		lastTap: cache.NewCache[model.UserID, time.Time](),
		posts:   cache.NewTTLCache[model.UserID, model.Post](cfg.PostsCacheTTL),
		now:     time.Now,
	}
}

func (e *Engine) conv(uid model.UserID) *conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.convs[uid]
	if !ok {
		c = newConversation()
		e.convs[uid] = c
	}
	return c
}

// tokensFor runs on the serialized turn path only, so the
// get-then-set on the cache cannot race.
func (e *Engine) tokensFor(uid model.UserID) *token.Registry {
	if r, ok := e.tokens.Get(uid); ok {
		return r
	}
	r := token.NewRegistry()
	e.tokens.Set(uid, r)
	return r
}

// cooled reports whether the activation should proceed, updating the
// per-user gate. A tap inside the cooldown window is swallowed.
func (e *Engine) cooled(uid model.UserID) bool {
	now := e.now()
	if last, ok := e.lastTap.Get(uid); ok && now.Sub(last) < e.cfg.Cooldown {
		return false
	}
	e.lastTap.Set(uid, now)
	return true
}

// persist flushes the store. Persistence failure is logged but never
// blocks the conversation; the in-memory state stays authoritative.
func (e *Engine) persist(uid model.UserID) {
	if err := e.store.Save(); err != nil {
		engineLogger.Error().Err(err).Int64("user_id", int64(uid)).Msg("Failed to persist session state")
	}
}

func (e *Engine) record(uid model.UserID) (*model.UserRecord, bool) {
	return e.store.Get(uid)
}

// today renders the publish date the API expects.
func (e *Engine) today() string {
	return e.now().UTC().Format("2006-01-02")
}

func (e *Engine) renderer() preview.Renderer {
	return preview.Renderer{Max: e.cfg.PreviewMax}
}

// send/edit helpers. Delivery failures are logged, not surfaced: there
// is no one to surface them to if the chat itself is broken.

func (e *Engine) send(ctx context.Context, chatID int64, text string, opts chat.SendOptions) chat.MessageRef {
	ref, err := e.chat.Send(ctx, chatID, text, opts)
	if err != nil {
		engineLogger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
	return ref
}

func (e *Engine) sendPlain(ctx context.Context, chatID int64, text string) {
	e.send(ctx, chatID, text, chat.SendOptions{})
}

func (e *Engine) edit(ctx context.Context, ref chat.MessageRef, text string, opts chat.SendOptions) {
	if err := e.chat.Edit(ctx, ref, text, opts); err != nil {
		engineLogger.Warn().Err(err).Int64("chat_id", ref.ChatID).Msg("Failed to edit message")
	}
}

func (e *Engine) ack(ctx context.Context, ev chat.Event, text string) {
	if !ev.IsCallback() {
		return
	}
	// Best effort only.
	if err := e.chat.AnswerCallback(ctx, ev.CallbackID, text); err != nil {
		engineLogger.Debug().Err(err).Msg("Failed to answer callback")
	}
}

// HandleEvent is the single entry point for inbound interactions.
// Turns are serialized against each other and against expiring
// deletion timers, so record mutation and persistence never overlap.
func (e *Engine) HandleEvent(ctx context.Context, ev chat.Event) {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()
	uid := model.UserID(ev.UserID)

	if !e.allow.Allowed(uid) {
		engineLogger.Warn().Int64("user_id", ev.UserID).Msg("Rejected user outside allow-list")
		if ev.IsCallback() {
			e.ack(ctx, ev, msgAccessDenied)
		} else {
			e.sendPlain(ctx, ev.ChatID, msgAccessDenied)
		}
		return
	}

	if ev.IsCallback() {
		if !e.cooled(uid) {
			e.ack(ctx, ev, msgSlowDown)
			return
		}
		e.handleCallback(ctx, uid, ev)
		return
	}

	if ev.Command != "" {
		e.handleCommand(ctx, uid, ev)
		return
	}
	e.handleText(ctx, uid, ev)
}

func (e *Engine) handleCommand(ctx context.Context, uid model.UserID, ev chat.Event) {
	switch ev.Command {
	case "start":
		e.cmdStart(ctx, uid, ev)
	case "help":
		e.sendPlain(ctx, ev.ChatID, msgHelp)
	case "key":
		e.cmdKey(ctx, uid, ev)
	case "new":
		e.cmdNew(ctx, uid, ev)
	case "edit":
		e.cmdEdit(ctx, uid, ev)
	case "delete":
		e.cmdDelete(ctx, uid, ev)
	case "list":
		e.cmdList(ctx, uid, ev, listview.ParseFilter(strings.TrimSpace(ev.Args)), "")
	case "drafts":
		e.cmdList(ctx, uid, ev, listview.FilterDrafts, "")
	case "published":
		e.cmdList(ctx, uid, ev, listview.FilterPublished, "")
	case "search":
		e.cmdList(ctx, uid, ev, listview.FilterAll, strings.TrimSpace(ev.Args))
	case "settings":
		e.cmdSettings(ctx, uid, ev)
	case "status":
		e.cmdStatus(ctx, uid, ev)
	case "cancel":
		e.cmdCancel(ctx, uid, ev)
	case "done", "preview", "undo", "clear", "skip":
		// In-flow commands are state dependent.
		e.handleText(ctx, uid, ev)
	default:
		e.sendPlain(ctx, ev.ChatID, "I do not know that command. /help lists what I can do.")
	}
}

// handleText dispatches a plain message (or in-flow command) by the
// current conversation state. Text arriving while idle gets a gentle
// nudge instead of being swallowed.
func (e *Engine) handleText(ctx context.Context, uid model.UserID, ev chat.Event) {
	c := e.conv(uid)
	switch c.state {
	case StateEnterKey:
		e.textEnterKey(ctx, uid, ev, c)
	case StateEnterTitle:
		e.textEnterTitle(ctx, uid, ev, c)
	case StateEnterBody:
		e.textEnterBody(ctx, uid, ev, c)
	case StateChoosePublishMode, StateChoosePublishModeForUpdate:
		e.sendPlain(ctx, ev.ChatID, msgChoosePublish)
	case StateConfirmCreate, StateConfirmUpdate:
		e.sendPlain(ctx, ev.ChatID, "Use the buttons to submit or cancel.")
	case StateEnterUpdateSlug:
		e.textEnterUpdateSlug(ctx, uid, ev, c)
	case StateEnterUpdatedTitle:
		e.textEnterUpdatedTitle(ctx, uid, ev, c)
	case StateEnterUpdatedBody:
		e.textEnterUpdatedBody(ctx, uid, ev, c)
	case StateEnterDeleteSlug:
		e.textEnterDeleteSlug(ctx, uid, ev, c)
	case StateConfirmDelete:
		e.sendPlain(ctx, ev.ChatID, msgConfirmDelete)
	default:
		e.sendPlain(ctx, ev.ChatID, "Not sure what to do with that. /help lists my commands.")
	}
}

// handleCallback dispatches a control activation by its data prefix.
func (e *Engine) handleCallback(ctx context.Context, uid model.UserID, ev chat.Event) {
	data := ev.CallbackData
	switch {
	case data == cbCancel:
		e.cbCancelFlow(ctx, uid, ev)
	case data == cbDraftDone:
		e.cbDraftDone(ctx, uid, ev)
	case data == cbDraftUndo:
		e.cbDraftUndo(ctx, uid, ev)
	case data == cbDraftClear:
		e.cbDraftClear(ctx, uid, ev)
	case data == cbDraftPreview:
		e.cbDraftPreview(ctx, uid, ev)
	case strings.HasPrefix(data, cbTmpl):
		e.cbTemplate(ctx, uid, ev, strings.TrimPrefix(data, cbTmpl))
	case data == cbPubDraft, data == cbPubPublish:
		e.cbPublishChoice(ctx, uid, ev, data == cbPubPublish)
	case data == cbSubmit:
		e.cbSubmit(ctx, uid, ev)
	case data == cbSlugSync:
		e.cbSlugSync(ctx, uid, ev)
	case strings.HasPrefix(data, cbListFilter):
		e.cbListFilter(ctx, uid, ev, strings.TrimPrefix(data, cbListFilter))
	case strings.HasPrefix(data, cbListPage):
		e.cbListPage(ctx, uid, ev, strings.TrimPrefix(data, cbListPage))
	case data == cbListFresh:
		e.cbListRefresh(ctx, uid, ev)
	case data == cbListBack:
		e.cbListBack(ctx, uid, ev)
	case strings.HasPrefix(data, cbManage):
		e.cbManage(ctx, uid, ev, strings.TrimPrefix(data, cbManage))
	case strings.HasPrefix(data, cbEdit):
		e.cbEditPost(ctx, uid, ev, strings.TrimPrefix(data, cbEdit))
	case strings.HasPrefix(data, cbTogglePub):
		e.cbTogglePublish(ctx, uid, ev, strings.TrimPrefix(data, cbTogglePub))
	case strings.HasPrefix(data, cbDelete):
		e.cbDeletePost(ctx, uid, ev, strings.TrimPrefix(data, cbDelete))
	case strings.HasPrefix(data, cbConfirmDel):
		e.cbConfirmDelete(ctx, uid, ev, strings.TrimPrefix(data, cbConfirmDel))
	case strings.HasPrefix(data, cbUndoDel):
		e.cbUndoDelete(ctx, uid, ev, strings.TrimPrefix(data, cbUndoDel))
	case data == cbRetry:
		e.cbRetry(ctx, uid, ev)
	case data == cbSetMode, data == cbSetConfirm:
		e.cbSettingsToggle(ctx, uid, ev, data)
	case strings.HasPrefix(data, cbSetPreview):
		e.cbSettingsPreview(ctx, uid, ev, strings.TrimPrefix(data, cbSetPreview))
	default:
		engineLogger.Warn().Str("data", data).Int64("user_id", int64(uid)).Msg("Unknown callback data")
		e.ack(ctx, ev, "")
	}
}

// requireKey loads the user's record or tells them to set a key first.
func (e *Engine) requireKey(ctx context.Context, uid model.UserID, ev chat.Event) (*model.UserRecord, bool) {
	rec, ok := e.record(uid)
	if !ok || rec.APIKey == "" {
		if ev.IsCallback() {
			e.ack(ctx, ev, msgNeedKey)
		} else {
			e.sendPlain(ctx, ev.ChatID, msgNeedKey)
		}
		return nil, false
	}
	return rec, true
}

// requirePrivate gates flow-starting commands to direct chats.
func (e *Engine) requirePrivate(ctx context.Context, ev chat.Event) bool {
	if ev.Private {
		return true
	}
	e.sendPlain(ctx, ev.ChatID, msgPrivateOnly)
	return false
}

func (e *Engine) cmdStart(ctx context.Context, uid model.UserID, ev chat.Event) {
	if !e.requirePrivate(ctx, ev) {
		return
	}
	if rec, ok := e.record(uid); ok && rec.APIKey != "" {
		e.sendPlain(ctx, ev.ChatID, msgAlreadySet)
		return
	}
	e.conv(uid).state = StateEnterKey
	e.sendPlain(ctx, ev.ChatID, msgAskKey)
}

func (e *Engine) cmdKey(ctx context.Context, uid model.UserID, ev chat.Event) {
	if !e.requirePrivate(ctx, ev) {
		return
	}
	key := strings.TrimSpace(ev.Args)
	if key == "" {
		e.conv(uid).state = StateEnterKey
		e.sendPlain(ctx, ev.ChatID, msgAskKey)
		return
	}
	e.saveKey(ctx, uid, ev, key)
}

func (e *Engine) textEnterKey(ctx context.Context, uid model.UserID, ev chat.Event, c *conversation) {
	if !ev.Private {
		e.sendPlain(ctx, ev.ChatID, msgPrivateOnly)
		return
	}
	key := strings.TrimSpace(ev.Text)
	if key == "" || strings.ContainsAny(key, " \n") {
		e.sendPlain(ctx, ev.ChatID, msgKeyInvalid)
		return
	}
	c.state = StateIdle
	e.saveKey(ctx, uid, ev, key)
}

func (e *Engine) saveKey(ctx context.Context, uid model.UserID, ev chat.Event, key string) {
	rec, ok := e.record(uid)
	if !ok {
		rec = model.NewUserRecord(key)
		e.store.Put(uid, rec)
	} else {
		rec.APIKey = key
	}
	e.persist(uid)
	engineLogger.Info().Int64("user_id", int64(uid)).Msg("Stored API key")
	e.sendPlain(ctx, ev.ChatID, msgKeySaved)
}

func (e *Engine) cmdCancel(ctx context.Context, uid model.UserID, ev chat.Event) {
	c := e.conv(uid)
	if c.state == StateIdle {
		e.sendPlain(ctx, ev.ChatID, msgNothingCancel)
		return
	}
	c.reset()
	e.sendPlain(ctx, ev.ChatID, msgCancelled)
}

func (e *Engine) cbCancelFlow(ctx context.Context, uid model.UserID, ev chat.Event) {
	c := e.conv(uid)
	c.reset()
	e.ack(ctx, ev, "")
	e.edit(ctx, ev.Ref, msgCancelled, chat.SendOptions{})
}

func (e *Engine) cmdStatus(ctx context.Context, uid model.UserID, ev chat.Event) {
	rec, ok := e.requireKey(ctx, uid, ev)
	if !ok {
		return
	}
	e.chat.SendTyping(ctx, ev.ChatID)
	started := time.Now()
	_, err := e.api.List(ctx, rec.APIKey)
	elapsed := time.Since(started).Milliseconds()
	if err != nil {
		e.sendPlain(ctx, ev.ChatID, "The publishing API is not responding: "+err.Error())
		return
	}
	e.sendPlain(ctx, ev.ChatID, "The publishing API is reachable ("+strconv.FormatInt(elapsed, 10)+" ms).")
}
