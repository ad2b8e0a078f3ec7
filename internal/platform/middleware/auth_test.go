package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signingKey = "unit-test-key"

func TestValidateTokenRoundTrip(t *testing.T) {
	token, err := IssueAnalystToken(signingKey, "analyst-7", time.Hour)
	require.NoError(t, err)

	claims, err := NewHMACValidator(signingKey).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "analyst-7", claims.Subject)
	assert.Equal(t, "analyst", claims.Role)
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, err := IssueAnalystToken(signingKey, "analyst-7", time.Hour)
	require.NoError(t, err)

	_, err = NewHMACValidator("other-key").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := IssueAnalystToken(signingKey, "analyst-7", -time.Minute)
	require.NoError(t, err)

	_, err = NewHMACValidator(signingKey).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsAlgNone(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, AnalystClaims{
		Role:             "analyst",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "analyst-7"},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewHMACValidator(signingKey).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsNonAnalystRole(t *testing.T) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AnalystClaims{
		Role: "auditor",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auditor-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte(signingKey))
	require.NoError(t, err)

	_, err = NewHMACValidator(signingKey).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRequiresSubject(t *testing.T) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AnalystClaims{
		Role: "analyst",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte(signingKey))
	require.NoError(t, err)

	_, err = NewHMACValidator(signingKey).ValidateToken(token)
	assert.Error(t, err)
}
