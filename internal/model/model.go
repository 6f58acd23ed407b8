// Package model defines the core data structures for the publishing bot.
package model

// UserID is the chat platform's numeric user identity.
type UserID int64

// PublishMode selects whether submissions default to draft or publish.
type PublishMode string

const (
	ModeDraft   PublishMode = "draft"
	ModePublish PublishMode = "publish"
)

const DefaultPreviewLength = 280

// AllowedPreviewLengths are the preview sizes selectable in settings.
var AllowedPreviewLengths = map[int]bool{140: true, 280: true, 500: true}

// Post is a post record as returned by the remote publishing API.
// PublishedAt is empty for drafts, a YYYY-MM-DD date otherwise.
type Post struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at,omitempty"`
	URL         string `json:"url,omitempty"`
}

func (p Post) Published() bool {
	return p.PublishedAt != ""
}

// PostPayload is the outbound body of a mutating API call. PublishedAt
// is a pointer because the API distinguishes "unpublish" (explicit
// null) from "leave as is"; it is always serialized.
type PostPayload struct {
	Title       string  `json:"title,omitempty"`
	Body        string  `json:"body,omitempty"`
	PublishedAt *string `json:"published_at"`
	Slug        string  `json:"slug,omitempty"`
}

// ActionKind tags the LastAction variant.
type ActionKind string

const (
	ActionNone          ActionKind = ""
	ActionCreate        ActionKind = "create"
	ActionUpdate        ActionKind = "update"
	ActionTogglePublish ActionKind = "togglepub"
	ActionDelete        ActionKind = "delete"
)

// LastAction records the parameters of the most recent mutating
// submission so a retry control can replay it verbatim. Exactly one
// is retained per user; the zero value means nothing to retry.
type LastAction struct {
	Kind    ActionKind   `json:"type,omitempty"`
	Slug    string       `json:"slug,omitempty"`
	Payload *PostPayload `json:"payload,omitempty"`
}

func (a LastAction) IsZero() bool {
	return a.Kind == ActionNone
}

// Settings holds the per-user preferences adjustable via /settings.
type Settings struct {
	DefaultPublishMode  PublishMode `json:"default_publish_mode"`
	PreviewLength       int         `json:"preview_length"`
	ConfirmBeforeDelete bool        `json:"confirm_before_delete"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultPublishMode:  ModeDraft,
		PreviewLength:       DefaultPreviewLength,
		ConfirmBeforeDelete: true,
	}
}

// Normalize clamps invalid values back to their defaults. Called after
// loading records from durable storage.
func (s *Settings) Normalize() {
	if s.DefaultPublishMode != ModeDraft && s.DefaultPublishMode != ModePublish {
		s.DefaultPublishMode = ModeDraft
	}
	if !AllowedPreviewLengths[s.PreviewLength] {
		s.PreviewLength = DefaultPreviewLength
	}
}

// UserRecord is the durable per-user state: credential, resumable
// draft, retry cache and settings. It is flushed to the store after
// every mutation.
type UserRecord struct {
	APIKey     string     `json:"api_key"`
	DraftTitle string     `json:"draft_title,omitempty"`
	DraftParts []string   `json:"draft_parts,omitempty"`
	UndoStack  []string   `json:"undo_stack,omitempty"`
	LastAction LastAction `json:"last_action"`
	Settings   Settings   `json:"settings"`
}

func NewUserRecord(apiKey string) *UserRecord {
	return &UserRecord{
		APIKey:   apiKey,
		Settings: DefaultSettings(),
	}
}

// HasDraft reports whether there is an unfinished draft to resume.
func (u *UserRecord) HasDraft() bool {
	return u.DraftTitle != ""
}

// ClearDraft empties the draft buffer and its undo stack.
func (u *UserRecord) ClearDraft() {
	u.DraftTitle = ""
	u.DraftParts = nil
	u.UndoStack = nil
}
