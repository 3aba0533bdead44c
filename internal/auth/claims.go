package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/aegis-console/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrUnknownRole    = errors.New("token has unknown role")
)

// ViewerClaims carries the viewer identity inside a bearer token.
type ViewerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseViewer validates an HMAC-signed token and extracts the viewer.
func ParseViewer(tokenString, secret, issuer string) (models.Viewer, error) {
	claims := &ViewerClaims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return models.Viewer{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return models.Viewer{}, jwt.ErrTokenSignatureInvalid
	}

	if claims.Subject == "" {
		return models.Viewer{}, ErrMissingSubject
	}

	role := models.Role(claims.Role)
	if role != models.RoleLecturer && role != models.RoleStudent {
		return models.Viewer{}, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}

	return models.Viewer{ID: claims.Subject, Role: role}, nil
}

// SignViewer issues an HS256 token for a viewer. Used by tooling and tests.
func SignViewer(viewer models.Viewer, secret, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ViewerClaims{
		Role: string(viewer.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewer.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
