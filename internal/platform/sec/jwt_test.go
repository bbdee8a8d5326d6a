// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/geohistory/internal/platform/sec"
)

/*
TestTokenService_RoundTrip verifies that a generated token verifies back to its session.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService("secret", "geohistory.test")
	require.NoError(t, err)

	token, err := service.GenerateSessionToken("session-1", time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "session-1", claims.Subject)
}

/*
TestTokenService_Rejects covers expired, foreign and tampered tokens.
*/
func TestTokenService_Rejects(t *testing.T) {
	service, err := sec.NewTokenService("secret", "geohistory.test")
	require.NoError(t, err)

	other, err := sec.NewTokenService("other-secret", "geohistory.test")
	require.NoError(t, err)

	otherIssuer, err := sec.NewTokenService("secret", "someone.else")
	require.NoError(t, err)

	expired, err := service.GenerateSessionToken("session-1", -time.Minute)
	require.NoError(t, err)

	foreign, err := other.GenerateSessionToken("session-1", time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := otherIssuer.GenerateSessionToken("session-1", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"foreign":      foreign,
		"wrong_issuer": wrongIssuer,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := service.VerifyToken(token)
			assert.Error(t, err)
		})
	}
}

/*
TestNewTokenService_EmptySecret verifies that an empty secret is refused.
*/
func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := sec.NewTokenService("", "geohistory.test")
	assert.Error(t, err)
}
