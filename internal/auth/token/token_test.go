package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vtk-it/declaro/internal/config"
)

func testIssuer(t *testing.T, secret string) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(config.Config{
		AuthJWTSecret: secret,
		SessionTTL:    time.Hour,
	})
	require.NoError(t, err)
	return issuer
}

func TestIssueAndVerify(t *testing.T) {
	issuer := testIssuer(t, "test-secret")

	now := time.Now()
	raw, expiresAt, err := issuer.Issue("12345", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	claims, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "12345", claims.ProfileID)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := testIssuer(t, "test-secret")

	raw, _, err := issuer.Issue("12345", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	raw, _, err := testIssuer(t, "secret-a").Issue("12345", time.Now())
	require.NoError(t, err)

	_, err = testIssuer(t, "secret-b").Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = testIssuer(t, "secret-a").Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer(config.Config{})
	assert.Error(t, err)
}
