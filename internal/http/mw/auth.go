// Package mw contains HTTP middleware for the synter-api.
package mw

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// WorkspaceClaimsKey is the context key for workspace claims.
	WorkspaceClaimsKey ContextKey = "workspace_claims"
)

// WorkspaceClaims is the verified identity of the calling workspace.
type WorkspaceClaims struct {
	WorkspaceID string
	Plan        string
}

type tokenClaims struct {
	Plan string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

// Auth returns middleware that verifies HS256 bearer tokens issued for a
// workspace. The token subject is the workspace id.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := verifyToken(secret, token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), WorkspaceClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyToken(secret []byte, token string) (*WorkspaceClaims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &WorkspaceClaims{
		WorkspaceID: claims.Subject,
		Plan:        claims.Plan,
	}, nil
}

// IssueToken signs a workspace token. Used by tooling and tests; in
// production tokens come from the identity provider sharing the secret.
func IssueToken(secret []byte, workspaceID, plan string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Plan: plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   workspaceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}

// GetWorkspaceClaims retrieves workspace claims from context.
func GetWorkspaceClaims(ctx context.Context) *WorkspaceClaims {
	claims, ok := ctx.Value(WorkspaceClaimsKey).(*WorkspaceClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetWorkspaceID retrieves the authenticated workspace id, or "".
func GetWorkspaceID(ctx context.Context) string {
	claims := GetWorkspaceClaims(ctx)
	if claims == nil {
		return ""
	}
	return claims.WorkspaceID
}
