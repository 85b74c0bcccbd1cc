// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package preview decides whether a post may be shown on the public site.
// Published posts are always visible. Drafts are visible only to requests
// carrying a valid preview token; to everyone else a draft looks exactly
// like a slug that does not exist.
package preview

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"estatepress/internal/models"
)

// DefaultLinkTTL is the lifetime of links issued from the admin editor.
const DefaultLinkTTL = 24 * time.Hour

// ErrNotFound is returned for missing posts and for drafts requested
// without a valid token.
var ErrNotFound = errors.New("post not found")

// PostSource looks posts up by slug regardless of published state.
type PostSource interface {
	Get(slug string) (*models.BlogPost, error)
}

// Verifier checks a preview token for a slug.
type Verifier interface {
	Verify(slug, token string) bool
}

// Gate applies the visibility rule on top of a PostSource.
type Gate struct {
	posts  PostSource
	tokens Verifier
}

// NewGate creates a Gate. A nil verifier rejects every token.
func NewGate(posts PostSource, tokens Verifier) *Gate {
	return &Gate{posts: posts, tokens: tokens}
}

// Fetch returns the post for slug if the caller may see it. Store errors
// are returned wrapped; visibility failures are always ErrNotFound.
func (g *Gate) Fetch(slug, token string) (*models.BlogPost, error) {
	post, err := g.posts.Get(slug)
	if err != nil {
		return nil, fmt.Errorf("preview fetch %s: %w", slug, err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if post.Published {
		return post, nil
	}
	if token == "" || g.tokens == nil || !g.tokens.Verify(slug, token) {
		return nil, ErrNotFound
	}
	return post, nil
}

// Tokens verifies the shared static token and issues and verifies signed
// per-post tokens of the form "<unix expiry>.<hex hmac>".
type Tokens struct {
	static []byte
	secret []byte
	now    func() time.Time
}

// NewTokens creates a Tokens. An empty static token or secret disables
// that kind of token.
func NewTokens(static, secret string) *Tokens {
	return &Tokens{static: []byte(static), secret: []byte(secret), now: time.Now}
}

// CanSign reports whether a signing secret is configured.
func (t *Tokens) CanSign() bool {
	return len(t.secret) > 0
}

// Sign issues a token for slug valid for ttl.
func (t *Tokens) Sign(slug string, ttl time.Duration) (string, time.Time, error) {
	if !t.CanSign() {
		return "", time.Time{}, errors.New("preview secret is not configured")
	}
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	expires := t.now().Add(ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expires.Unix(), 10)
	return exp + "." + hex.EncodeToString(t.mac(slug, exp)), expires, nil
}

// Verify accepts the static token or an unexpired signed token for slug.
func (t *Tokens) Verify(slug, token string) bool {
	if token == "" {
		return false
	}
	if len(t.static) > 0 && subtle.ConstantTimeCompare([]byte(token), t.static) == 1 {
		return true
	}
	if !t.CanSign() {
		return false
	}

	exp, sig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil || t.now().Unix() >= unix {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(got, t.mac(slug, exp))
}

func (t *Tokens) mac(slug, exp string) []byte {
	h := hmac.New(sha256.New, t.secret)
	h.Write([]byte(slug))
	h.Write([]byte{'|'})
	h.Write([]byte(exp))
	return h.Sum(nil)
}
