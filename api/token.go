package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/account"
)

// Claims are the access token claims. The subject is the caller Identity.
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 access tokens.
type Authenticator struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// NewAuthenticator creates an Authenticator signing with secret. Tokens it
// accepts must carry the same issuer.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(secret),
		issuer:     issuer,
		now:        time.Now,
	}
}

// Issue signs a token whose subject is who.
func (a *Authenticator) Issue(who account.Identity, ttl time.Duration) (string, error) {
	if who.IsZero() {
		return "", wallet.ErrUnauthenticated
	}
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   who.String(),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(a.signingKey)
}

// Identify verifies tokenString and returns the Identity it was issued to.
// Every failure matches wallet.ErrUnauthenticated.
func (a *Authenticator) Identify(tokenString string) (account.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return a.signingKey, nil
	},
		jwt.WithIssuer(a.issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token has expired", wallet.ErrUnauthenticated)
		}
		return "", fmt.Errorf("%w: invalid token", wallet.ErrUnauthenticated)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("%w: invalid token claims", wallet.ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", wallet.ErrUnauthenticated)
	}
	return account.Identity(claims.Subject), nil
}
