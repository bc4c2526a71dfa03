package utils // package utils provides password hashing and access token helpers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by TokenCodec. All of them wrap ErrTokenInvalid so callers
// that only care about "usable or not" can test a single value.
var (
	ErrTokenInvalid          = errors.New("token invalid")
	ErrTokenMalformed        = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenSignatureInvalid = fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	ErrTokenExpired          = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrTokenSubjectMismatch  = fmt.Errorf("%w: subject mismatch", ErrTokenInvalid)
)

// MinSecretBytes is the minimum decoded key length accepted for HS256.
const MinSecretBytes = 32

// Claims is the payload carried by an access token: sub, roles, iat and exp.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 access tokens. It is immutable after
// construction and safe for concurrent use.
type TokenCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// DecodeSecret decodes base64 key material. Both the standard and the URL-safe
// alphabets are accepted, with or without padding.
func DecodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(secret); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("jwt secret is not valid base64")
}

// NewTokenCodec decodes the base64 secret once and returns a codec issuing
// tokens valid for ttl.
func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	if len(key) < MinSecretBytes {
		return nil, fmt.Errorf("jwt secret too short: %d bytes, need at least %d", len(key), MinSecretBytes)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive, got %s", ttl)
	}
	return &TokenCodec{key: key, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads the current time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// TTL returns the default lifetime used by IssueFor.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue builds and signs an HS256 token for subject with the given roles.
// iat is set to now and exp to now+ttl, both truncated to whole seconds.
func (c *TokenCodec) Issue(subject string, roles []string, now time.Time, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	claims := Claims{
		Roles: append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.key)
}

// IssueFor issues a token using the codec's clock and configured ttl and
// returns it with its expiry.
func (c *TokenCodec) IssueFor(subject string, roles []string) (string, time.Time, error) {
	now := c.now()
	tok, err := c.Issue(subject, roles, now, c.ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, now.Add(c.ttl).Truncate(time.Second), nil
}

// ParseAndVerify checks the signature, the algorithm and the expiry and only
// then returns the claims. Any failure yields nil claims and one of the
// ErrToken* values.
func (c *TokenCodec) ParseAndVerify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// IsExpired reports whether claims are at or past their expiry.
func (c *TokenCodec) IsExpired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}

// ExtractSubject verifies raw and returns its subject.
func (c *TokenCodec) ExtractSubject(raw string) (string, error) {
	claims, err := c.ParseAndVerify(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ValidateFor verifies raw and checks that it was issued for username.
func (c *TokenCodec) ValidateFor(raw, username string) error {
	claims, err := c.ParseAndVerify(raw)
	if err != nil {
		return err
	}
	if claims.Subject != username {
		return ErrTokenSubjectMismatch
	}
	if c.IsExpired(claims) {
		return ErrTokenExpired
	}
	return nil
}

// classify collapses jwt library errors into the codec's own taxonomy so
// parser internals never leak to callers.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
