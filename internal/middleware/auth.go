package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"marketplace-api/internal/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticate verifies the Bearer token minted by the identity service and
// stores the caller's identity in the request context. Handlers read it via
// IdentityFrom and pass it explicitly into the service layer.
func Authenticate(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("missing authorization header")
				http.Error(w, "unauthorised: missing bearer token", http.StatusUnauthorized)
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "unauthorised: malformed authorization header", http.StatusUnauthorized)
				return
			}

			identity, err := parseIdentity(tokenString, secret)
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
				http.Error(w, "unauthorised: invalid token", http.StatusUnauthorized)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the admin role. Must run after Authenticate.
func RequireAdmin(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok || !identity.IsAdmin() {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("role", string(identity.Role)).
					Msg("non-admin access to admin route")
				http.Error(w, "forbidden: admin role required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFrom retrieves the authenticated caller from the request context.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity. It exists for
// handler tests that bypass Authenticate.
func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func parseIdentity(tokenString, secret string) (model.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Identity{}, fmt.Errorf("invalid token claims")
	}

	rawUserID, ok := claims["user_id"].(string)
	if !ok {
		return model.Identity{}, fmt.Errorf("token missing user_id claim")
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return model.Identity{}, fmt.Errorf("invalid user_id claim: %w", err)
	}

	rawRole, ok := claims["role"].(string)
	if !ok {
		return model.Identity{}, fmt.Errorf("token missing role claim")
	}
	role := model.Role(rawRole)
	switch role {
	case model.RoleUser, model.RoleSeller, model.RoleAdmin:
	default:
		return model.Identity{}, fmt.Errorf("unknown role claim: %s", rawRole)
	}

	return model.Identity{UserID: userID, Role: role}, nil
}
