package web

import (
	"context"
	"errors"
	"time"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/ports/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// ===== JWT primitives =====

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type UserClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type AuthManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    repository.TokenBlacklist // optional
	now        func() time.Time
}

func NewAuthManager(secret string, accessTTL, refreshTTL time.Duration, revoked repository.TokenBlacklist) *AuthManager {
	return &AuthManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		now:        time.Now,
	}
}

// Mint issues a fresh access/refresh pair for the user. Every token carries
// its own ulid jti so a single refresh token can be revoked.
func (a *AuthManager) Mint(userID string) (TokenPair, error) {
	access, err := a.sign(userID, tokenAccess, a.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := a.sign(userID, tokenRefresh, a.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (a *AuthManager) sign(userID, typ string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := UserClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *AuthManager) parse(tok, typ string) (*UserClaims, error) {
	claims := &UserClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.Type != typ || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (a *AuthManager) ParseAccess(tok string) (*UserClaims, error) {
	return a.parse(tok, tokenAccess)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is returned. Without a blacklist the old token stays usable until it
// expires.
func (a *AuthManager) Refresh(ctx context.Context, refresh string) (TokenPair, error) {
	claims, err := a.parse(refresh, tokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	if err := a.revoke(ctx, claims); err != nil {
		return TokenPair{}, err
	}
	return a.Mint(claims.Subject)
}

// Revoke invalidates a refresh token, used on logout.
func (a *AuthManager) Revoke(ctx context.Context, refresh string) error {
	claims, err := a.parse(refresh, tokenRefresh)
	if err != nil {
		return err
	}
	return a.revoke(ctx, claims)
}

func (a *AuthManager) revoke(ctx context.Context, claims *UserClaims) error {
	if a.revoked == nil {
		return nil
	}
	gone, err := a.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if gone {
		return domain.ErrTokenRevoked
	}
	ttl := claims.ExpiresAt.Time.Sub(a.now())
	if ttl <= 0 {
		return domain.ErrUnauthorized
	}
	if err := a.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return errors.Join(domain.ErrOperationFailed, err)
	}
	return nil
}
