package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the engine reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens issued by the identity provider
// and extracts the stable user id (the subject claim).
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier. The secret must be non-empty; issuer is
// checked only when set.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret), issuer: issuer}, nil
}

// Verify parses and validates tokenString (with or without a "Bearer "
// prefix) and returns the user it identifies. Failures carry an AuthError
// reason code.
func (v *Verifier) Verify(tokenString string) (User, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return User{}, &AuthError{Reason: ReasonMissingToken}
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method)
		}
		return v.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return User{}, &AuthError{Reason: ReasonExpiredToken, Err: err}
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return User{}, &AuthError{Reason: ReasonInvalidSignature, Err: err}
		default:
			return User{}, &AuthError{Reason: ReasonInvalidClaims, Err: err}
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return User{}, &AuthError{Reason: ReasonInvalidClaims}
	}
	if claims.Subject == "" {
		return User{}, &AuthError{Reason: ReasonInvalidClaims, Err: errors.New("missing subject")}
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return User{}, &AuthError{Reason: ReasonInvalidClaims, Err: errors.New("invalid issuer")}
	}

	return User{ID: claims.Subject, Email: claims.Email}, nil
}
