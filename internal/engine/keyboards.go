package engine

import (
	"fmt"
	"strconv"

	"github.com/mataroa-tools/matabot/internal/chat"
	"github.com/mataroa-tools/matabot/internal/listview"
	"github.com/mataroa-tools/matabot/internal/model"
)

// Callback data namespace. Tokens are appended after the trailing
// colon where present.
const (
	cbCancel       = "cancel"
	cbDraftDone    = "draft:done"
	cbDraftUndo    = "draft:undo"
	cbDraftClear   = "draft:clear"
	cbDraftPreview = "draft:preview"
	cbTmpl         = "tmpl:"
	cbPubDraft     = "pub:draft"
	cbPubPublish   = "pub:publish"
	cbSubmit       = "submit"
	cbSlugSync     = "slugsync"
	cbListFilter   = "list:filter:"
	cbListPage     = "list:page:"
	cbListFresh    = "list:refresh"
	cbListBack     = "list:back"
	cbManage       = "manage:"
	cbEdit         = "edit:"
	cbDelete       = "delete:"
	cbConfirmDel   = "confirmdel:"
	cbUndoDel      = "undodel:"
	cbTogglePub    = "togglepub:"
	cbRetry        = "retry"
	cbSetMode      = "settings:mode"
	cbSetPreview   = "settings:preview:"
	cbSetConfirm   = "settings:confirm"
)

func cancelRow() []chat.Button {
	return []chat.Button{{Label: "Cancel", Data: cbCancel}}
}

func draftingKeyboard() chat.Keyboard {
	return chat.Keyboard{
		{
			{Label: "Done", Data: cbDraftDone},
			{Label: "Preview", Data: cbDraftPreview},
			{Label: "Undo last", Data: cbDraftUndo},
			{Label: "Clear", Data: cbDraftClear},
		},
		{
			{Label: "Outline", Data: cbTmpl + "outline"},
			{Label: "Notes", Data: cbTmpl + "notes"},
			{Label: "Links", Data: cbTmpl + "links"},
		},
		cancelRow(),
	}
}

// publishChoiceKeyboard marks the user's default mode so it reads as
// the suggested choice.
func publishChoiceKeyboard(defaultMode model.PublishMode) chat.Keyboard {
	draftLabel, publishLabel := "Save as draft", "Publish now"
	if defaultMode == model.ModePublish {
		publishLabel = "· " + publishLabel + " ·"
	} else {
		draftLabel = "· " + draftLabel + " ·"
	}
	return chat.Keyboard{
		{
			{Label: draftLabel, Data: cbPubDraft},
			{Label: publishLabel, Data: cbPubPublish},
		},
		cancelRow(),
	}
}

func submitKeyboard() chat.Keyboard {
	return chat.Keyboard{
		{{Label: "Submit", Data: cbSubmit}},
		cancelRow(),
	}
}

func submitUpdateKeyboard(slugSync bool) chat.Keyboard {
	syncLabel := "Slug sync: OFF"
	if slugSync {
		syncLabel = "Slug sync: ON"
	}
	return chat.Keyboard{
		{{Label: "Submit", Data: cbSubmit}, {Label: syncLabel, Data: cbSlugSync}},
		cancelRow(),
	}
}

func retryKeyboard() chat.Keyboard {
	return chat.Keyboard{{{Label: "Retry", Data: cbRetry}}}
}

func confirmDeleteKeyboard(tok string) chat.Keyboard {
	return chat.Keyboard{
		{
			{Label: "Yes, delete", Data: cbConfirmDel + tok},
			{Label: "Cancel", Data: cbCancel},
		},
	}
}

func undoDeleteKeyboard(tok string) chat.Keyboard {
	return chat.Keyboard{{{Label: "Undo", Data: cbUndoDel + tok}}}
}

func manageKeyboard(tok string, published bool, url string) chat.Keyboard {
	toggleLabel := "Publish"
	if published {
		toggleLabel = "Unpublish"
	}
	kb := chat.Keyboard{
		{
			{Label: "Edit", Data: cbEdit + tok},
			{Label: toggleLabel, Data: cbTogglePub + tok},
			{Label: "Delete", Data: cbDelete + tok},
		},
	}
	if url != "" {
		kb = append(kb, []chat.Button{{Label: "Open", URL: url}})
	}
	kb = append(kb, []chat.Button{{Label: "Back to list", Data: cbListBack}})
	return kb
}

func filterLabel(name string, f, active listview.Filter) string {
	if f == active {
		return "· " + name + " ·"
	}
	return name
}

// listKeyboard builds one Manage row per visible post plus the filter
// and navigation rows.
func listKeyboard(page listview.Page, st listview.State, tokenFor func(slug string) string) chat.Keyboard {
	var kb chat.Keyboard
	for _, p := range page.Items {
		marker := "[draft]"
		if p.Published() {
			marker = "[live]"
		}
		label := fmt.Sprintf("%s %s", marker, p.Title)
		kb = append(kb, []chat.Button{{Label: label, Data: cbManage + tokenFor(p.Slug)}})
	}
	kb = append(kb, []chat.Button{
		{Label: filterLabel("All", listview.FilterAll, st.Filter), Data: cbListFilter + string(listview.FilterAll)},
		{Label: filterLabel("Published", listview.FilterPublished, st.Filter), Data: cbListFilter + string(listview.FilterPublished)},
		{Label: filterLabel("Drafts", listview.FilterDrafts, st.Filter), Data: cbListFilter + string(listview.FilterDrafts)},
	})
	nav := []chat.Button{}
	if page.Number > 1 {
		nav = append(nav, chat.Button{Label: "<", Data: cbListPage + strconv.Itoa(page.Number-1)})
	}
	nav = append(nav, chat.Button{
		Label: fmt.Sprintf("%d/%d", page.Number, page.TotalPages),
		Data:  cbListFresh,
	})
	if page.Number < page.TotalPages {
		nav = append(nav, chat.Button{Label: ">", Data: cbListPage + strconv.Itoa(page.Number+1)})
	}
	kb = append(kb, nav)
	return kb
}

func settingsKeyboard(s model.Settings) chat.Keyboard {
	modeLabel := "Default: save as draft"
	if s.DefaultPublishMode == model.ModePublish {
		modeLabel = "Default: publish now"
	}
	confirmLabel := "Confirm before delete: OFF"
	if s.ConfirmBeforeDelete {
		confirmLabel = "Confirm before delete: ON"
	}
	previewRow := []chat.Button{}
	for _, n := range []int{140, 280, 500} {
		label := strconv.Itoa(n)
		if s.PreviewLength == n {
			label = "· " + label + " ·"
		}
		previewRow = append(previewRow, chat.Button{Label: label, Data: cbSetPreview + strconv.Itoa(n)})
	}
	return chat.Keyboard{
		{{Label: modeLabel, Data: cbSetMode}},
		previewRow,
		{{Label: confirmLabel, Data: cbSetConfirm}},
	}
}
