// internal/httpserver/session.go
//
// Session identity: a long-lived opaque id carried in an HMAC-signed cookie.
// No accounts, no passwords — the id exists only to isolate game state per
// client. A missing or invalid cookie gets a fresh session transparently.

package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxSessionKey struct{}

const sessionLifetime = 180 * 24 * time.Hour

// withSession ensures the request carries a valid session id, issuing a new
// signed cookie when needed, and stores the id in the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := s.sessionFromCookie(r)
		if sid == "" {
			sid = newSessionID()
			s.setSessionCookie(w, sid)
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the session id placed by withSession; empty without it.
func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(ctxSessionKey{}).(string)
	return sid
}

// sessionFromCookie verifies the cookie's signature and extracts the id.
func (s *Server) sessionFromCookie(r *http.Request) string {
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.SessionSecret), nil
	})
	if err != nil || !tok.Valid {
		return ""
	}
	sid, _ := claims["sid"].(string)
	return sid
}

// setSessionCookie signs and writes the session cookie.
func (s *Server) setSessionCookie(w http.ResponseWriter, sid string) {
	exp := time.Now().Add(sessionLifetime)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
	})
	signed, err := t.SignedString([]byte(s.opts.SessionSecret))
	if err != nil {
		return // request still proceeds; a new id is issued next time
	}
	sameSite := http.SameSiteLaxMode
	if s.opts.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// newSessionID creates a 22-char URL-safe, crypto-random identifier.
func newSessionID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	id := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(id) > 22 {
		return id[:22]
	}
	return id
}
