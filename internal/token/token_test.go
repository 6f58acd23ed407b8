package token

import (
	"strings"
	"testing"
)

func TestIsValidSlug(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"hello-world", true},
		{"a", true},
		{"post-123", true},
		{"", false},
		{"Hello", false},
		{"has space", false},
		{"under_score", false},
		{strings.Repeat("a", 128), true},
		{strings.Repeat("a", 129), false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := IsValidSlug(tc.in); got != tc.want {
				t.Errorf("IsValidSlug(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Trimmed  ", "trimmed"},
		{"Weird!!! Chars???", "weird-chars"},
		{"snake_case title", "snakecase-title"},
		{"multi   spaces", "multi-spaces"},
		{"---dashes---", "dashes"},
		{"!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := Slugify(tc.in); got != tc.want {
				t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRegistry_ForSlugStable(t *testing.T) {
	r := NewRegistry()
	tok1 := r.ForSlug("my-post")
	tok2 := r.ForSlug("my-post")
	if tok1 != tok2 {
		t.Errorf("Expected the same token for the same slug, got %q and %q", tok1, tok2)
	}
	if len(tok1) != TokenLength {
		t.Errorf("Expected token length %d, got %d", TokenLength, len(tok1))
	}
}

func TestRegistry_Bijection(t *testing.T) {
	r := NewRegistry()
	slugs := []string{"one", "two", "three", "four", "five"}
	seen := make(map[string]string)
	for _, s := range slugs {
		tok := r.ForSlug(s)
		if prev, dup := seen[tok]; dup {
			t.Fatalf("Token %q issued for both %q and %q", tok, prev, s)
		}
		seen[tok] = s
	}
	for tok, slug := range seen {
		got, ok := r.Resolve(tok)
		if !ok || got != slug {
			t.Errorf("Resolve(%q) = %q, %v, want %q", tok, got, ok, slug)
		}
	}
	if r.Len() != len(slugs) {
		t.Errorf("Expected %d mappings, got %d", len(slugs), r.Len())
	}
}

func TestRegistry_ResolveLiteralSlug(t *testing.T) {
	r := NewRegistry()
	slug, ok := r.Resolve("direct-slug")
	if !ok || slug != "direct-slug" {
		t.Fatalf("Resolve literal slug = %q, %v, want direct-slug, true", slug, ok)
	}
	// The fallback registers the mapping, so a token now exists.
	tok := r.ForSlug("direct-slug")
	got, ok := r.Resolve(tok)
	if !ok || got != "direct-slug" {
		t.Errorf("Resolve(%q) = %q, %v after literal registration", tok, got, ok)
	}
}

func TestRegistry_ResolveGarbage(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve("NOT A SLUG!"); ok {
		t.Error("Expected garbage input to not resolve")
	}
}

func TestRegistry_Drop(t *testing.T) {
	r := NewRegistry()
	tok := r.ForSlug("gone")
	r.Drop("gone")
	if r.Len() != 0 {
		t.Fatalf("Expected empty registry after drop, got %d", r.Len())
	}
	// Generated tokens are valid slugs themselves, so a dropped token
	// falls through to the literal-slug path: it resolves to itself,
	// never back to the dropped slug.
	got, ok := r.Resolve(tok)
	if !ok || got != tok {
		t.Errorf("Resolve(%q) = %q, %v, want the literal input", tok, got, ok)
	}
	// The literal registration now owns the old token, so the dropped
	// slug gets a fresh one on next use.
	if again := r.ForSlug("gone"); again == tok {
		t.Error("Expected a fresh token for the dropped slug, got the old one")
	}
}

func TestRandomTokenShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		tok := randomToken()
		if len(tok) != TokenLength {
			t.Fatalf("Expected length %d, got %q", TokenLength, tok)
		}
		for _, r := range tok {
			if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", r) {
				t.Fatalf("Unexpected character %q in token %q", r, tok)
			}
		}
	}
}
