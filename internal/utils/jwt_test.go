package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func newCodec(t *testing.T, now time.Time) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	return c.WithClock(func() time.Time { return now })
}

func TestNewTokenCodec_RejectsBadSecrets(t *testing.T) {
	_, err := NewTokenCodec("%%%not-base64%%%", time.Hour)
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("short"))
	_, err = NewTokenCodec(short, time.Hour)
	assert.ErrorContains(t, err, "too short")

	_, err = NewTokenCodec(testSecret, 0)
	assert.Error(t, err)
}

func TestDecodeSecret_AcceptsURLAlphabet(t *testing.T) {
	raw := []byte{0xfb, 0xff, 0xfe, 0x01, 0x02}
	got, err := DecodeSecret(base64.RawURLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestIssueAndExtractSubject(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newCodec(t, now)

	tok, err := c.Issue("alice", []string{"USER"}, now, time.Hour)
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)

	sub, err := c.ExtractSubject(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	claims, err := c.ParseAndVerify(tok)
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, claims.Roles)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.False(t, c.IsExpired(claims))
}

func TestIssue_EmptySubject(t *testing.T) {
	c := newCodec(t, time.Now())
	_, err := c.Issue("", nil, time.Now(), time.Hour)
	assert.Error(t, err)
}

func TestParseAndVerify_Expired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newCodec(t, issued)
	tok, err := c.Issue("alice", []string{"USER"}, issued, time.Minute)
	require.NoError(t, err)

	later := c.WithClock(func() time.Time { return issued.Add(2 * time.Minute) })
	claims, err := later.ParseAndVerify(tok)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = later.ExtractSubject(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseAndVerify_ExactExpiryBoundaryIsExpired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newCodec(t, issued)
	tok, err := c.Issue("alice", nil, issued, time.Minute)
	require.NoError(t, err)

	atExp := c.WithClock(func() time.Time { return issued.Add(time.Minute) })
	_, err = atExp.ParseAndVerify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(issued.Add(time.Minute))}}
	assert.True(t, atExp.IsExpired(claims))
	assert.True(t, atExp.IsExpired(nil))
}

func TestParseAndVerify_FlippedSignature(t *testing.T) {
	now := time.Now()
	c := newCodec(t, now)
	tok, err := c.Issue("alice", []string{"USER"}, now, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[0] ^= 0x01
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)

	_, err = c.ParseAndVerify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestParseAndVerify_TamperedPayload(t *testing.T) {
	now := time.Now()
	c := newCodec(t, now)
	tok, err := c.Issue("alice", []string{"USER"}, now, time.Hour)
	require.NoError(t, err)

	forged, err := c.Issue("alice", []string{"ADMIN"}, now, time.Hour)
	require.NoError(t, err)

	orig := strings.Split(tok, ".")
	other := strings.Split(forged, ".")
	spliced := orig[0] + "." + other[1] + "." + orig[2]

	_, err = c.ParseAndVerify(spliced)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestParseAndVerify_WrongKey(t *testing.T) {
	now := time.Now()
	c := newCodec(t, now)
	other, err := NewTokenCodec(base64.StdEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff")), time.Hour)
	require.NoError(t, err)

	tok, err := other.Issue("alice", nil, now, time.Hour)
	require.NoError(t, err)
	_, err = c.ParseAndVerify(tok)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestParseAndVerify_Malformed(t *testing.T) {
	c := newCodec(t, time.Now())
	for _, raw := range []string{"", "garbage", "not.a.jwt", "a.b.c.d"} {
		claims, err := c.ParseAndVerify(raw)
		assert.Nil(t, claims, raw)
		assert.ErrorIs(t, err, ErrTokenInvalid, raw)
	}
}

func TestParseAndVerify_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	c := newCodec(t, now)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = c.ParseAndVerify(none)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	key, _ := DecodeSecret(testSecret)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(key)
	require.NoError(t, err)
	_, err = c.ParseAndVerify(hs512)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseAndVerify_RequiresExpiry(t *testing.T) {
	c := newCodec(t, time.Now())
	key, _ := DecodeSecret(testSecret)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
	}).SignedString(key)
	require.NoError(t, err)

	_, err = c.ParseAndVerify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateFor(t *testing.T) {
	now := time.Now()
	c := newCodec(t, now)
	tok, err := c.Issue("alice", []string{"USER"}, now, time.Hour)
	require.NoError(t, err)

	assert.NoError(t, c.ValidateFor(tok, "alice"))
	assert.ErrorIs(t, c.ValidateFor(tok, "bob"), ErrTokenSubjectMismatch)
}

func TestIssueFor_UsesConfiguredTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	c := newCodec(t, now)

	tok, exp, err := c.IssueFor("alice", []string{"ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Truncate(time.Second), exp)

	claims, err := c.ParseAndVerify(tok)
	require.NoError(t, err)
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, []string{"ADMIN"}, claims.Roles)
}
