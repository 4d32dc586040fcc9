package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"eventscheduler/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// RevocationList remembers revoked token ids until the tokens would have expired anyway.
type RevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke marks jti revoked until expiresAt and drops entries that already expired.
func (l *RevocationList) Revoke(jti string, expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, exp := range l.revoked {
		if !exp.After(now) {
			delete(l.revoked, id)
		}
	}
	l.revoked[jti] = expiresAt
}

func (l *RevocationList) IsRevoked(jti string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.revoked[jti]
	return ok
}

// JWTTokens issues and verifies HS256 tokens carrying sub, email and a jti used for sign-out.
type JWTTokens struct {
	secret  []byte
	revoked *RevocationList
	now     func() time.Time
}

// NewJWTTokens returns a token issuer/verifier signing with secret. A nil list disables revocation.
func NewJWTTokens(secret string, revoked *RevocationList) *JWTTokens {
	if revoked == nil {
		revoked = NewRevocationList()
	}
	return &JWTTokens{secret: []byte(secret), revoked: revoked, now: time.Now}
}

var (
	_ domain.TokenIssuer   = (*JWTTokens)(nil)
	_ domain.TokenVerifier = (*JWTTokens)(nil)
)

func (j *JWTTokens) Issue(userID, email string, expiry time.Duration) (string, error) {
	now := j.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (j *JWTTokens) parse(tokenString string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// Verify rejects malformed, expired and revoked tokens with domain.ErrUnauthenticated.
func (j *JWTTokens) Verify(ctx context.Context, tokenString string) (*domain.Identity, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ID != "" && j.revoked.IsRevoked(claims.ID) {
		return nil, domain.ErrUnauthenticated
	}
	return &domain.Identity{UserID: claims.Subject, Email: claims.Email, Token: tokenString}, nil
}

// Revoke invalidates tokenString for the rest of its lifetime.
func (j *JWTTokens) Revoke(tokenString string) error {
	claims, err := j.parse(tokenString)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return errors.New("token has no id")
	}
	expiresAt := j.now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	j.revoked.Revoke(claims.ID, expiresAt)
	return nil
}
