// Package token maps remote post slugs to short opaque tokens so
// inline control identifiers stay within the chat platform's
// callback-data limits and never collide with formatting syntax.
package token

import (
	"crypto/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// TokenLength is the fixed length of generated tokens.
const TokenLength = 8

var slugRe = regexp.MustCompile(`^[a-z0-9-]{1,128}$`)

// IsValidSlug reports whether s matches the remote service's slug
// pattern: lowercase letters, digits and hyphens, 1 to 128 characters.
func IsValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

var (
	slugStripRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugCollapseRe = regexp.MustCompile(`[\s_-]+`)
)

// Slugify derives a slug suggestion from a post title. The result may
// be empty when the title carries no usable characters.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Registry is a per-user bidirectional token<->slug mapping. At most
// one token exists per slug and vice versa; tokens are never reused
// while mapped. The mapping lives in process memory only: after a
// restart, controls carrying a literal slug still resolve through the
// validity fallback in Resolve.
type Registry struct {
	mu      sync.RWMutex
	byToken map[string]string
	bySlug  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byToken: make(map[string]string),
		bySlug:  make(map[string]string),
	}
}

// ForSlug returns the token mapped to slug, generating and registering
// a fresh one on first use.
func (r *Registry) ForSlug(slug string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok, ok := r.bySlug[slug]; ok {
		return tok
	}
	var tok string
	for {
		tok = randomToken()
		if _, taken := r.byToken[tok]; !taken {
			break
		}
	}
	r.byToken[tok] = slug
	r.bySlug[slug] = tok
	return tok
}

// Resolve maps a token back to its slug. If the input is not a known
// token but is itself a valid slug, it is accepted and registered so
// later controls reuse a single token for it. Returns false for input
// that is neither.
func (r *Registry) Resolve(tokenOrSlug string) (string, bool) {
	r.mu.RLock()
	slug, ok := r.byToken[tokenOrSlug]
	r.mu.RUnlock()
	if ok {
		return slug, true
	}
	if IsValidSlug(tokenOrSlug) {
		r.ForSlug(tokenOrSlug)
		return tokenOrSlug, true
	}
	return "", false
}

// Drop invalidates the mapping for slug, if any.
func (r *Registry) Drop(slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok, ok := r.bySlug[slug]; ok {
		delete(r.byToken, tok)
		delete(r.bySlug, slug)
	}
}

// Len returns the number of active mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}

// randomToken draws 40 bits from the system CSPRNG and encodes them as
// a fixed-width base-36 string.
func randomToken() string {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err) // crypto/rand is expected to never fail
	}
	n := uint64(b[0])<<32 | uint64(b[1])<<24 | uint64(b[2])<<16 | uint64(b[3])<<8 | uint64(b[4])
	s := strconv.FormatUint(n, 36)
	if len(s) > TokenLength {
		return s[:TokenLength]
	}
	return strings.Repeat("0", TokenLength-len(s)) + s
}
