// Package auth protects the web UI with a single operator account checked
// against a bcrypt hash, then remembered in a signed cookie.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when user/password don't match.
var ErrInvalidCredentials = errors.New("invalid credentials")

type contextKey string

const userContextKey contextKey = "auth/user"

// SessionManager signs and validates lightweight session tokens.
type SessionManager struct {
	Secret       []byte
	Duration     time.Duration
	CookieName   string
	SecureCookie bool
}

// Claims captures decoded session data.
type Claims struct {
	User      string
	ExpiresAt time.Time
}

// Credentials is the configured operator account.
type Credentials struct {
	User         string
	PasswordHash string
}

// Enabled reports whether both a user and a hash are configured.
func (c Credentials) Enabled() bool {
	return strings.TrimSpace(c.User) != "" && strings.TrimSpace(c.PasswordHash) != ""
}

// Verify checks user and password against the configured account.
func (c Credentials) Verify(user, password string) error {
	if subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) != 1 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for WEB_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hashed), nil
}

// Middleware requires either a valid session cookie or HTTP basic auth.
type Middleware struct {
	Credentials Credentials
	Sessions    SessionManager
}

// NewMiddleware builds a middleware with a random signing secret.
func NewMiddleware(creds Credentials) (Middleware, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return Middleware{}, fmt.Errorf("auth: generate secret: %w", err)
	}
	return Middleware{
		Credentials: creds,
		Sessions:    SessionManager{Secret: secret, Duration: 12 * time.Hour},
	}, nil
}

// Require lets the request through when authenticated. Without credentials
// configured every request passes.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Credentials.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if cookie, err := r.Cookie(m.Sessions.cookieName()); err == nil && cookie.Value != "" {
			if claims, err := m.Sessions.Parse(cookie.Value); err == nil && claims.ExpiresAt.After(time.Now()) && claims.User == m.Credentials.User {
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.User)))
				return
			}
			// Clear unusable cookies to avoid loops.
			expired := m.Sessions.expiredCookie()
			http.SetCookie(w, &expired)
		}

		user, password, ok := r.BasicAuth()
		if !ok || m.Credentials.Verify(user, password) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="interior-designer", charset="UTF-8"`)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		if token, exp, err := m.Sessions.Issue(user); err == nil {
			cookie := m.Sessions.cookie(token, exp)
			http.SetCookie(w, &cookie)
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Logout clears the session cookie.
func (m Middleware) Logout(w http.ResponseWriter, _ *http.Request) {
	cookie := m.Sessions.expiredCookie()
	http.SetCookie(w, &cookie)
	w.WriteHeader(http.StatusNoContent)
}

// Parse validates a token and returns session claims.
func (sm SessionManager) Parse(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return Claims{}, errors.New("invalid token format")
	}
	payload := parts[0]
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, sm.Secret)
	mac.Write([]byte(payload))
	if !hmac.Equal(mac.Sum(nil), sig) {
		return Claims{}, errors.New("signature mismatch")
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Claims{}, fmt.Errorf("decode payload: %w", err)
	}
	// The user name may itself contain the separator; the expiry is always last.
	i := strings.LastIndex(string(raw), "|")
	if i < 0 {
		return Claims{}, errors.New("invalid payload")
	}
	user, expiry := string(raw[:i]), string(raw[i+1:])
	expUnix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("parse expiry: %w", err)
	}
	return Claims{User: user, ExpiresAt: time.Unix(expUnix, 0)}, nil
}

// Issue builds a signed session token for the given user.
func (sm SessionManager) Issue(user string) (string, time.Time, error) {
	if len(sm.Secret) == 0 {
		return "", time.Time{}, errors.New("session secret missing")
	}
	expires := time.Now().Add(sm.sessionDuration())
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%s|%d", user, expires.Unix())))
	mac := hmac.New(sha256.New, sm.Secret)
	mac.Write([]byte(payload))
	token := payload + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return token, expires, nil
}

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated user from context if present.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userContextKey).(string)
	return user, ok
}

func (sm SessionManager) cookie(token string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     sm.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.SecureCookie,
	}
}

func (sm SessionManager) expiredCookie() http.Cookie {
	return http.Cookie{
		Name:     sm.cookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.SecureCookie,
	}
}

func (sm SessionManager) cookieName() string {
	if sm.CookieName != "" {
		return sm.CookieName
	}
	return "designer_session"
}

func (sm SessionManager) sessionDuration() time.Duration {
	if sm.Duration <= 0 {
		return 12 * time.Hour
	}
	return sm.Duration
}
