package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fraudshield/pkg/faults"
	"fraudshield/pkg/httputil"
	"fraudshield/pkg/requestcontext"
)

// AnalystClaims are the claims analyst tokens must carry.
type AnalystClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenValidator validates analyst bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*AnalystClaims, error)
}

// HMACValidator validates HS256 tokens against a shared signing key.
type HMACValidator struct {
	key []byte
}

func NewHMACValidator(signingKey string) *HMACValidator {
	return &HMACValidator{key: []byte(signingKey)}
}

func (v *HMACValidator) ValidateToken(tokenString string) (*AnalystClaims, error) {
	claims := &AnalystClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	if claims.Role != "analyst" {
		return nil, fmt.Errorf("role %q is not permitted", claims.Role)
	}
	return claims, nil
}

// IssueAnalystToken mints a token for the given analyst. Used by tests and
// the local development environment.
func IssueAnalystToken(signingKey, analystID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AnalystClaims{
		Role: "analyst",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   analystID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(signingKey))
}

// RequireAnalyst rejects requests without a valid analyst bearer token and
// threads the analyst ID through the request context.
func RequireAnalyst(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				httputil.WriteError(w, faults.New(faults.CodeUnauthorized, "missing bearer token"))
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "analyst token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, faults.New(faults.CodeUnauthorized, "invalid or expired token"))
				return
			}
			ctx := requestcontext.WithAnalystID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
