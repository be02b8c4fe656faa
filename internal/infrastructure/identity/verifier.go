// Package identity verifies bearer ID tokens issued by the external identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("Invalid token")
	ErrTokenExpired = errors.New("Token expired")
)

// Identity is the verified subject of an ID token.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

type idTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier validates RS256 ID tokens against a JWKS key source.
type Verifier struct {
	Keys      KeySource
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// NewFirebaseVerifier builds a Verifier for a Firebase project.
func NewFirebaseVerifier(projectID string, keys KeySource) *Verifier {
	return &Verifier{
		Keys:      keys,
		Issuer:    "https://securetoken.google.com/" + projectID,
		Audience:  projectID,
		ClockSkew: time.Minute,
	}
}

// Verify checks signature, issuer, audience, expiry and subject.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}
	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("token missing kid header")
		}
		return v.Keys.GetKey(ctx, kid)
	},
		jwt.WithIssuer(v.Issuer),
		jwt.WithAudience(v.Audience),
		jwt.WithLeeway(v.ClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{UID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}
