package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "ebooking/pkg/errors"
	httputil "ebooking/pkg/http"
	"ebooking/pkg/logger"
	"ebooking/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const principalKey contextKey = "principal"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by access tokens. The subject is the user id.
type Claims struct {
	Name string     `json:"name,omitempty"`
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

func (a *Authenticator) Issue(p model.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: p.Name,
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Parse(authHeader string) (model.Principal, error) {
	tokenStr := strings.TrimSpace(authHeader)
	if len(tokenStr) > 7 && strings.EqualFold(tokenStr[:7], "bearer ") {
		tokenStr = strings.TrimSpace(tokenStr[7:])
	} else {
		tokenStr = ""
	}
	if tokenStr == "" {
		return model.Principal{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return model.Principal{}, ErrInvalidToken
	}

	role := claims.Role
	if role != model.RoleAdmin {
		role = model.RoleUser
	}
	return model.Principal{UserID: claims.Subject, Name: claims.Name, Role: role}, nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's principal on the request context. Paths in public are served
// without a token.
func Authenticate(auth *Authenticator, log *logger.Logger, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range public {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}

			p, err := auth.Parse(r.Header.Get("Authorization"))
			if err != nil {
				log.Warn("Authentication failed",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
					log.Error("failed to write auth error", "error", writeErr)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(model.Principal)
	return p, ok
}

// RequirePrincipal returns the caller or an Unauthorized error.
func RequirePrincipal(ctx context.Context) (model.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return model.Principal{}, apperrors.Unauthorized("Authentication required")
	}
	return p, nil
}

// RequireAdmin returns the caller when it holds the admin role.
func RequireAdmin(ctx context.Context) (model.Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return p, err
	}
	if !p.IsAdmin() {
		return p, apperrors.Forbidden("Admin role required")
	}
	return p, nil
}
