package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fkhayef/cityreports/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// PrincipalKey is the context key for the authenticated caller
	PrincipalKey ContextKey = "principal"

	roleAdmin   = "admin"
	roleCitizen = "citizen"
)

// Principal is the caller identity asserted by the auth provider
type Principal struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// IsAdmin reports whether the caller may triage reports
func (p Principal) IsAdmin() bool {
	return p.Role == roleAdmin
}

// Claims mirrors the access tokens issued by the hosted auth provider.
// user_metadata is editable by the user and only supplies the display name;
// the role is read from app_metadata, which only the server can write.
type Claims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

// RoleResolver looks up the role stored for a user. It takes precedence over
// any role carried in the token.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (string, error)
}

// TokenVerifier validates HS256 access tokens signed with the project secret
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses the token and returns the principal it describes
func (v *TokenVerifier) Verify(tokenString string) (*Principal, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("token verification is not configured")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token: missing subject")
	}

	p := &Principal{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  roleCitizen,
	}
	if name, ok := claims.UserMetadata["name"].(string); ok {
		p.Name = name
	}
	if role, ok := claims.AppMetadata["role"].(string); ok && role == roleAdmin {
		p.Role = roleAdmin
	}
	return p, nil
}

// AuthMiddleware requires a valid bearer token and stores the principal in the context.
// When roles is non-nil the principal's role comes from it instead of the token.
func AuthMiddleware(verifier *TokenVerifier, roles RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Authorization header required")
				return
			}

			// Extract token from "Bearer <token>"
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			if roles != nil {
				role, err := roles.ResolveRole(r.Context(), principal.ID)
				if err != nil {
					response.InternalError(w, "Failed to resolve user role")
					return
				}
				principal.Role = roleCitizen
				if role == roleAdmin {
					principal.Role = roleAdmin
				}
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *principal)))
		})
	}
}

// TestUserMiddleware allows setting the caller via X-Test-User-* headers (DEV ONLY)
// This makes it easy to test as different users without real auth
func TestUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := Principal{
			ID:    r.Header.Get("X-Test-User-ID"),
			Email: r.Header.Get("X-Test-User-Email"),
			Name:  r.Header.Get("X-Test-User-Name"),
			Role:  roleCitizen,
		}
		// Default to a fixed citizen if no header provided
		if p.ID == "" {
			p.ID = "dev-citizen"
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if r.Header.Get("X-Test-User-Role") == roleAdmin {
			p.Role = roleAdmin
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireAdmin rejects callers without the admin role
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			response.Unauthorized(w, "Authentication required")
			return
		}
		if !p.IsAdmin() {
			response.Forbidden(w, "Administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipal extracts the caller from the request context
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}
