// Package token implements the credential lifecycle: issuing signed
// access/refresh pairs, verifying presented tokens, and exchanging a valid
// refresh token for a fresh access token.
//
// Tokens are never persisted; their only state is the claims and the HMAC
// signature, and expiry is the only termination mechanism. Revocation is not
// supported.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds, used in claims validation and metrics labels.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Verification failure modes. Callers must be able to tell expiry from
// tampering: an expired access token sends the client to the refresh flow, an
// invalid signature sends it back to login.
var (
	// ErrExpired means the token's signature checked out but its expiry has passed.
	ErrExpired = errors.New("token expired")

	// ErrInvalidSignature means the signature does not match the expected secret.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrInvalidToken covers malformed tokens and all other verification failures.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingSecret means a signing secret was absent at issue/verify time.
	// This is a deployment bug surfaced at call time, never defaulted around.
	ErrMissingSecret = errors.New("missing signing secret")
)

// Claims carried by both token kinds. Subject id and email are embedded
// redundantly so a verifier can authorize basic identity checks without a
// store lookup.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token pair minted for one identity.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Config carries the signing material and TTLs. It is constructed once at
// startup and passed in; token operations never read ambient environment
// state.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Service issues, verifies and rotates tokens. All operations are pure
// functions of the presented material, the configuration and the clock.
type Service struct {
	cfg Config
	now func() time.Time
}

// New creates a token service. TTLs default to 15 minutes (access) and 7 days
// (refresh) when unset; secrets intentionally have no default.
func New(cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{cfg: cfg, now: time.Now}
}

// IssuePair mints an access/refresh pair for the given subject. It fails with
// ErrMissingSecret if either signing secret is unconfigured; no partial pair
// is ever returned.
func (s *Service) IssuePair(userID, email string) (Pair, error) {
	if s.cfg.AccessSecret == "" || s.cfg.RefreshSecret == "" {
		return Pair{}, ErrMissingSecret
	}

	now := s.now()

	access, err := s.sign(userID, email, s.cfg.AccessSecret, now, s.cfg.AccessTTL)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := s.sign(userID, email, s.cfg.RefreshSecret, now, s.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token's signature and expiry and returns
// its claims. It never touches the identity store and has no side effects.
func (s *Service) VerifyAccess(tokenStr string) (*Claims, error) {
	return s.verify(tokenStr, s.cfg.AccessSecret)
}

// VerifyRefresh validates a refresh token's signature and expiry.
func (s *Service) VerifyRefresh(tokenStr string) (*Claims, error) {
	return s.verify(tokenStr, s.cfg.RefreshSecret)
}

// Rotate exchanges a valid refresh token for a new access token carrying the
// same subject claims and a freshly computed expiry. The refresh token itself
// is not rotated and stays valid until its own expiry; that trade-off is
// deliberate and documented. No session store is consulted.
func (s *Service) Rotate(refreshToken string) (string, error) {
	if s.cfg.AccessSecret == "" || s.cfg.RefreshSecret == "" {
		return "", ErrMissingSecret
	}

	claims, err := s.verify(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return "", err
	}

	return s.sign(claims.UserID, claims.Email, s.cfg.AccessSecret, s.now(), s.cfg.AccessTTL)
}

func (s *Service) sign(userID, email, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) verify(tokenStr, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	t, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
