package providers

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTokenTTL = time.Hour
	tokenSkew       = 60 * time.Second
)

// LoginFunc performs a login and returns the session token.
type LoginFunc func(ctx context.Context) (string, error)

// TokenHolder owns a session token and its expiry. Concurrent callers that
// find the token missing or expired share a single login.
type TokenHolder struct {
	mu      sync.RWMutex
	token   string
	expires time.Time

	login LoginFunc
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
}

func NewTokenHolder(login LoginFunc, ttl time.Duration, now func() time.Time) *TokenHolder {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenHolder{login: login, ttl: ttl, now: now}
}

// Token returns a valid token, logging in when needed.
func (h *TokenHolder) Token(ctx context.Context) (string, error) {
	if tok, ok := h.current(); ok {
		return tok, nil
	}
	return h.Refresh(ctx)
}

func (h *TokenHolder) current() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == "" || !h.now().Before(h.expires) {
		return "", false
	}
	return h.token, true
}

// Refresh forces a new login. Callers arriving during an in-flight login
// receive its result.
func (h *TokenHolder) Refresh(ctx context.Context) (string, error) {
	v, err, _ := h.group.Do("login", func() (interface{}, error) {
		tok, err := h.login(ctx)
		if err != nil {
			return "", err
		}
		h.Set(tok)
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Set stores tok. A JWT's exp claim, less a minute of skew, bounds the
// expiry; opaque tokens get the default TTL.
func (h *TokenHolder) Set(tok string) {
	now := h.now()
	expires := now.Add(h.ttl)
	if exp, ok := jwtExpiry(tok); ok {
		if e := exp.Add(-tokenSkew); e.Before(expires) {
			expires = e
		}
	}
	h.mu.Lock()
	h.token = tok
	h.expires = expires
	h.mu.Unlock()
}

// Invalidate drops the token only if it is still tok, so a fresh token
// stored by another caller survives.
func (h *TokenHolder) Invalidate(tok string) {
	h.mu.Lock()
	if tok == "" || h.token == tok {
		h.token = ""
		h.expires = time.Time{}
	}
	h.mu.Unlock()
}

// Peek returns the current token without logging in, or "" if none is valid.
func (h *TokenHolder) Peek() string {
	tok, _ := h.current()
	return tok
}

func (h *TokenHolder) Expires() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.expires
}

func jwtExpiry(tok string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
