package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "sabji", ExpirationMinutes: 30}

func TestMintAndParseRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New()

	token, err := MintAccessToken(testJWT, now, AccessTokenPayload{
		UserID: userID,
		Role:   enums.RoleSeller,
		Name:   "Ramesh Greens",
		JTI:    "jti-1",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testJWT, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.RoleSeller, claims.Role)
	assert.Equal(t, "Ramesh Greens", claims.Name)
	assert.Equal(t, "jti-1", claims.ID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintFillsMissingJTI(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.NoError(t, err)
	claims, err := ParseAccessToken(testJWT, token)
	require.NoError(t, err)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestParseRejectsTampering(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWT, token+"x")
	assert.Error(t, err)

	other := testJWT
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	other = testJWT
	other.Secret = "rotated"
	_, err = ParseAccessTokenAllowExpired(other, token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestExpiredTokenOnlyReadableWhenAllowed(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleDelivery})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWT, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := ParseAccessTokenAllowExpired(testJWT, token)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleDelivery, claims.Role)
}

func TestMintRejectsInvalidInput(t *testing.T) {
	cases := map[string]struct {
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		"empty role":  {testJWT, AccessTokenPayload{UserID: uuid.New()}},
		"system role": {testJWT, AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleSystem}},
		"no user":     {testJWT, AccessTokenPayload{Role: enums.RoleAdmin}},
		"no secret":   {config.JWTConfig{Issuer: "sabji", ExpirationMinutes: 5}, AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin}},
		"no ttl":      {config.JWTConfig{Secret: "s", Issuer: "sabji"}, AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := MintAccessToken(tc.cfg, time.Now(), tc.payload)
			assert.Error(t, err)
		})
	}
}
