package preview

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEscape(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a_b*c", `a\_b\*c`},
		{"dots.and!bangs", `dots\.and\!bangs`},
		{`back\slash`, `back\\slash`},
		{"unicode é stays", "unicode é stays"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Escape(tc.in); got != tc.want {
			t.Errorf("Escape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSafeTruncate(t *testing.T) {
	t.Run("Short input untouched", func(t *testing.T) {
		if got := SafeTruncate("abc", 10); got != "abc" {
			t.Errorf("Expected abc, got %q", got)
		}
	})

	t.Run("Truncates with ellipsis", func(t *testing.T) {
		got := SafeTruncate("abcdefgh", 5)
		if utf8.RuneCountInString(got) != 5 {
			t.Errorf("Expected 5 characters, got %q", got)
		}
		if !strings.HasSuffix(got, "…") {
			t.Errorf("Expected ellipsis suffix, got %q", got)
		}
	})

	t.Run("Backs off over trailing backslashes", func(t *testing.T) {
		// Cutting at the backslash would leave a dangling escape.
		got := SafeTruncate(`abc\\\de`, 5)
		if strings.HasSuffix(strings.TrimSuffix(got, "…"), `\`) {
			t.Errorf("Expected no dangling backslash, got %q", got)
		}
	})

	t.Run("Zero and one budgets", func(t *testing.T) {
		if got := SafeTruncate("abc", 0); got != "" {
			t.Errorf("Expected empty string, got %q", got)
		}
		if got := SafeTruncate("abc", 1); got != "…" {
			t.Errorf("Expected bare ellipsis, got %q", got)
		}
	})
}

func checkBounded(t *testing.T, out string, max int) {
	t.Helper()
	if n := utf8.RuneCountInString(out); n > max {
		t.Errorf("Output is %d characters, cap is %d", n, max)
	}
	trimmed := strings.TrimSuffix(out, "…")
	// Count trailing backslashes; an odd count is a dangling escape.
	n := 0
	for i := len(trimmed) - 1; i >= 0 && trimmed[i] == '\\'; i-- {
		n++
	}
	if n%2 == 1 {
		t.Errorf("Output ends with a dangling escape: %q", out[len(out)-min(20, len(out)):])
	}
}

func TestRenderCreateBounds(t *testing.T) {
	r := Renderer{Max: 200}
	lengths := []int{0, 1, 10, 150, 200, 1000, 5000}
	for _, tl := range lengths {
		for _, bl := range lengths {
			title := strings.Repeat("T.", tl/2+1)[:tl]
			body := strings.Repeat("b!", bl/2+1)[:bl]
			out := r.RenderCreate(title, body, "")
			checkBounded(t, out, r.Max)
		}
	}
}

func TestRenderCreateContent(t *testing.T) {
	r := Renderer{Max: 3900}
	out := r.RenderCreate("Hello", "World", "")
	if !strings.Contains(out, "Hello") || !strings.Contains(out, "World") {
		t.Errorf("Expected title and body in preview, got %q", out)
	}
	if !strings.Contains(out, "Draft") {
		t.Errorf("Expected draft status, got %q", out)
	}
	out = r.RenderCreate("Hello", "World", "2026-08-30")
	if !strings.Contains(out, "Published") {
		t.Errorf("Expected published status, got %q", out)
	}
}

func TestRenderUpdateBounds(t *testing.T) {
	r := Renderer{Max: 250}
	lengths := []int{0, 5, 100, 300, 2000}
	for _, tl := range lengths {
		for _, bl := range lengths {
			title := strings.Repeat("x", tl)
			body := strings.Repeat("_", bl)
			out := r.RenderUpdate(title, body, "2026-01-01", "old-slug", strings.Repeat("s", 120), true)
			checkBounded(t, out, r.Max)
		}
	}
}

func TestRenderUpdateSlugLine(t *testing.T) {
	r := Renderer{Max: 3900}
	out := r.RenderUpdate("T", "B", "", "old-slug", "new-slug", true)
	if !strings.Contains(out, "old\\-slug") || !strings.Contains(out, "new\\-slug") {
		t.Errorf("Expected both slugs in preview, got %q", out)
	}
	if !strings.Contains(out, "sync ON") {
		t.Errorf("Expected sync state, got %q", out)
	}

	out = r.RenderUpdate("T", "B", "", "same", "same", false)
	if strings.Contains(out, "→") {
		t.Errorf("Expected no arrow when slug is unchanged, got %q", out)
	}
	if !strings.Contains(out, "sync OFF") {
		t.Errorf("Expected sync OFF, got %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Expected unchanged string, got %q", got)
	}
	got := Truncate("hello world", 5)
	if utf8.RuneCountInString(got) != 5 || !strings.HasSuffix(got, "…") {
		t.Errorf("Expected 5-char ellipsis truncation, got %q", got)
	}
}
