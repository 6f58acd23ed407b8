package engine

import (
	"github.com/mataroa-tools/matabot/internal/listview"
)

// State is the per-user conversation state. It decides which inbound
// text is expected next; controls are dispatched by their data instead.
type State int

const (
	StateIdle State = iota
	StateEnterKey
	StateEnterTitle
	StateEnterBody
	StateChoosePublishMode
	StateConfirmCreate
	StateEnterUpdateSlug
	StateEnterUpdatedTitle
	StateEnterUpdatedBody
	StateChoosePublishModeForUpdate
	StateConfirmUpdate
	StateEnterDeleteSlug
	StateConfirmDelete
)

// conversation is the ephemeral per-user flow context. It is created
// on flow entry and reset to the zero value on completion or cancel;
// only what is mirrored into the UserRecord survives a restart.
type conversation struct {
	state State

	// Update flow fields.
	title         string
	body          string
	publishedAt   string
	currentSlug   string
	suggestedSlug string
	slugSync      bool

	// Delete flow: the slug awaiting explicit confirmation.
	deleteSlug string

	list listview.State
}

func newConversation() *conversation {
	return &conversation{list: listview.NewState()}
}

// reset returns the conversation to idle, keeping list view state so
// navigating away and back does not lose the page.
func (c *conversation) reset() {
	list := c.list
	*c = conversation{list: list}
}
