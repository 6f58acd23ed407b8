// Package preview renders length-bounded MarkdownV2 previews of posts.
//
// The renderers are total functions: whatever the input lengths, the
// output fits the configured cap and never ends in a dangling escape
// backslash. When a preview overflows, content is sacrificed in a
// fixed priority order: body first, then title, then (for updates) the
// slug-suggestion line, since the body is the least load-bearing part
// once title and status are visible.
//
// All budgets are counted in characters, not bytes, matching the chat
// platform's message length accounting.
package preview

import (
	"strings"
	"unicode/utf8"
)

// escapeSet are the characters MarkdownV2 requires escaping, plus the
// escape character itself.
const escapeSet = "\\_*[]()~`>#+-=|{}.!"

// Escape backslash-escapes all MarkdownV2 special characters in s.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 && strings.ContainsRune(escapeSet, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// SafeTruncate shortens an escaped MarkdownV2 string to at most max
// characters, backing the cut point up over trailing backslashes so no
// escape sequence is left dangling, and appending an ellipsis marker.
func SafeTruncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if max == 1 {
		return "…"
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	cut := max - 1
	for cut > 0 && r[cut-1] == '\\' {
		cut--
	}
	return string(r[:cut]) + "…"
}

// Truncate shortens plain text to at most length characters with an
// ellipsis marker. Used for list body previews before escaping.
func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	if length < 1 {
		return "…"
	}
	return string(r[:length-1]) + "…"
}

// Renderer produces previews bounded by Max characters.
type Renderer struct {
	Max int
}

func statusLabel(publishedAt string) string {
	if publishedAt == "" {
		return "Draft"
	}
	return "Published"
}

// RenderCreate renders the confirmation preview for a new post.
func (r Renderer) RenderCreate(title, body, publishedAt string) string {
	titleS := Escape(title)
	bodyS := Escape(body)
	headerPre := "*Preview Post:*\n\n*Title:*\n"
	headerPost := "\n\n*Body:*\n"
	footer := "\n\n*Status:*\n" + Escape(statusLabel(publishedAt))
	fixed := runeLen(headerPre) + runeLen(headerPost) + runeLen(footer)

	bodyAllowed := r.Max - fixed - runeLen(titleS) - runeLen(bodyS)
	if bodyAllowed < 0 {
		// Title itself may overflow; shrink it against an empty body
		// budget, then give the body whatever remains.
		titleAllowed := r.Max - fixed
		if titleAllowed < 0 {
			titleAllowed = 0
		}
		if runeLen(titleS) > titleAllowed {
			titleS = SafeTruncate(titleS, titleAllowed)
		}
		remaining := r.Max - fixed - runeLen(titleS)
		if remaining < 0 {
			remaining = 0
		}
		bodyS = SafeTruncate(bodyS, remaining)
	} else if maxBody := r.Max - fixed - runeLen(titleS); maxBody < runeLen(bodyS) {
		if maxBody < 0 {
			maxBody = 0
		}
		bodyS = SafeTruncate(bodyS, maxBody)
	}

	return headerPre + titleS + headerPost + bodyS + footer
}

// RenderUpdate renders the confirmation preview for a post update,
// including the slug change indication and sync toggle state.
func (r Renderer) RenderUpdate(title, body, publishedAt, currentSlug, suggested string, slugSync bool) string {
	titleS := Escape(title)
	bodyS := Escape(body)
	slugLine := Escape(currentSlug)
	if currentSlug != suggested {
		slugLine = Escape(currentSlug) + " → " + Escape(suggested)
	}
	syncState := "sync OFF"
	if slugSync {
		syncState = "sync ON"
	}

	headerPre := "*Preview Updated Post:*\n\n*Title:*\n"
	headerPost := "\n\n*Body:*\n"
	tailPre := "\n\n*Slug:*\n"
	tailMid := " \\(" + Escape(syncState) + "\\)"
	tailPost := "\n\n*Status:*\n" + Escape(statusLabel(publishedAt))
	fixed := runeLen(headerPre) + runeLen(headerPost) + runeLen(tailPre) + runeLen(tailMid) + runeLen(tailPost)

	if fixed+runeLen(titleS)+runeLen(bodyS)+runeLen(slugLine) > r.Max {
		// 1) Shrink body
		bodyAllowed := r.Max - fixed - runeLen(titleS) - runeLen(slugLine)
		if bodyAllowed < 0 {
			bodyS = ""
		} else {
			bodyS = SafeTruncate(bodyS, bodyAllowed)
		}
		// 2) Shrink title if still over
		if fixed+runeLen(titleS)+runeLen(bodyS)+runeLen(slugLine) > r.Max {
			titleAllowed := r.Max - fixed - runeLen(bodyS) - runeLen(slugLine)
			if titleAllowed < 0 {
				titleAllowed = 0
			}
			if runeLen(titleS) > titleAllowed {
				titleS = SafeTruncate(titleS, titleAllowed)
			}
		}
		// 3) Shrink slug line last
		if fixed+runeLen(titleS)+runeLen(bodyS)+runeLen(slugLine) > r.Max {
			slugAllowed := r.Max - fixed - runeLen(titleS) - runeLen(bodyS)
			if slugAllowed < 0 {
				slugAllowed = 0
			}
			if runeLen(slugLine) > slugAllowed {
				slugLine = SafeTruncate(slugLine, slugAllowed)
			}
		}
	}

	return headerPre + titleS + headerPost + bodyS + tailPre + slugLine + tailMid + tailPost
}
