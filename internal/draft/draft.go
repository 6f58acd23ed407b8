// Package draft implements the multi-message draft accumulator.
//
// A draft is an ordered sequence of text chunks mirrored into the
// owning user record together with an undo stack, so it survives
// process restarts and can be resumed mid-flow. All operations report
// whether the record changed; the caller is responsible for flushing
// the record to durable storage when they do.
package draft

import (
	"strings"

	"github.com/mataroa-tools/matabot/internal/model"
)

// Templates are the fixed body skeletons insertable while drafting.
var Templates = map[string]string{
	"outline": "# Outline\n- Intro\n- Body\n- Conclusion\n",
	"notes":   "# Notes\n- Point 1\n- Point 2\n",
	"links":   "# Links\n- [Title](https://example.com) - note\n",
}

// Append adds a chunk to the draft and mirrors it on the undo stack.
// Empty or whitespace-only chunks are rejected.
func Append(rec *model.UserRecord, chunk string) bool {
	if strings.TrimSpace(chunk) == "" {
		return false
	}
	rec.DraftParts = append(rec.DraftParts, chunk)
	rec.UndoStack = append(rec.UndoStack, chunk)
	return true
}

// UndoLast pops the most recent undo entry and removes the matching
// draft chunk. The draft chunk is only removed when it is actually the
// entry on top of the undo stack, which defends against a draft that
// was truncated externally. Returns false when there is nothing to
// undo.
func UndoLast(rec *model.UserRecord) (string, bool) {
	if len(rec.UndoStack) == 0 {
		return "", false
	}
	last := rec.UndoStack[len(rec.UndoStack)-1]
	rec.UndoStack = rec.UndoStack[:len(rec.UndoStack)-1]
	if n := len(rec.DraftParts); n > 0 && rec.DraftParts[n-1] == last {
		rec.DraftParts = rec.DraftParts[:n-1]
	}
	return last, true
}

// Clear discards all draft chunks and the undo stack, keeping the
// draft title.
func Clear(rec *model.UserRecord) {
	rec.DraftParts = nil
	rec.UndoStack = nil
}

// Snapshot joins the accumulated chunks into the post body.
func Snapshot(rec *model.UserRecord) string {
	return strings.Join(rec.DraftParts, "\n")
}

// InsertTemplate appends the named template body as a regular chunk.
// Returns false for an unknown template name.
func InsertTemplate(rec *model.UserRecord, name string) bool {
	tpl, ok := Templates[name]
	if !ok {
		return false
	}
	return Append(rec, tpl)
}
