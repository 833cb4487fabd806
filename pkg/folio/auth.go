package folio

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultSessionTTL = 12 * time.Hour

// sessionRegistry tracks sessions revoked before their natural expiry.
// Tokens are stateless JWTs, so logout and the email-mismatch rejection
// need a server-side denylist keyed by the token's unique ID.
type sessionRegistry struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{revoked: make(map[string]time.Time)}
}

// Revoke denies the token ID until its expiry.
func (s *sessionRegistry) Revoke(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = expiresAt
	// Drop entries past their expiry; the JWT check already rejects them.
	now := time.Now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
}

func (s *sessionRegistry) IsRevoked(jti string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (a *App) sessionTTL() time.Duration {
	if a.config.SessionTTL > 0 {
		return a.config.SessionTTL
	}
	return defaultSessionTTL
}

func (a *App) issueToken(email string) (string, *sessionClaims, error) {
	claims := &sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.sessionTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.config.JWTSecret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (a *App) parseToken(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// handleLogin authenticates dashboard credentials. The password must
// verify against the stored bcrypt hash AND the credential's email must
// exactly equal the configured admin address. A record that verifies under
// a different email is treated as a successful authentication of the wrong
// identity: the just-issued session is revoked immediately and the request
// is rejected.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx := r.Context()
	admin, err := a.store.GetAdmin(ctx, req.Email)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountReads(1)
	if admin == nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, claims, err := a.issueToken(admin.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	if admin.Email != a.config.AdminEmail {
		// Authenticated, but not the dashboard owner. Kill the session
		// before it can be used.
		a.sessions.Revoke(claims.ID, claims.ExpiresAt.Time)
		a.log.Warn().Str("email", admin.Email).Msg("authenticated identity is not the configured admin")
		respondError(w, http.StatusForbidden, "This account is not authorized for the dashboard")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"email":      admin.Email,
		"expires_at": claims.ExpiresAt.Time,
	})
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	a.sessions.Revoke(claims.ID, claims.ExpiresAt.Time)
	respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"email":      claims.Email,
		"expires_at": claims.ExpiresAt.Time,
	})
}

type contextKey string

const claimsKey contextKey = "folio-session-claims"

func claimsFromRequest(r *http.Request) (*sessionClaims, bool) {
	claims, ok := r.Context().Value(claimsKey).(*sessionClaims)
	return claims, ok
}

func contextWithClaims(ctx context.Context, claims *sessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// requireAdmin validates the Bearer token, rejects revoked sessions, and
// re-checks the admin identity on every request so a configuration change
// takes effect without waiting for token expiry.
func (a *App) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			respondError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		claims, err := a.parseToken(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if a.sessions.IsRevoked(claims.ID) {
			respondError(w, http.StatusUnauthorized, "Session revoked")
			return
		}
		if claims.Email != a.config.AdminEmail {
			a.sessions.Revoke(claims.ID, claims.ExpiresAt.Time)
			respondError(w, http.StatusForbidden, "This account is not authorized for the dashboard")
			return
		}

		ctx := contextWithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
