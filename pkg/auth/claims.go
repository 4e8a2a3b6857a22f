package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// AccessTokenPayload is the data needed to mint an access token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	Name   string
	JTI    string
}

// AccessTokenClaims is the JWT issued to every role. The subject id refers to
// users, sellers or delivery_agents depending on Role.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	Name   string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// BearerToken pulls the token out of an Authorization header value. The
// "Bearer" scheme is optional and matched case-insensitively.
func BearerToken(header string) (string, bool) {
	const scheme = "bearer"
	token := strings.TrimSpace(header)
	if len(token) >= len(scheme) && strings.EqualFold(token[:len(scheme)], scheme) &&
		(len(token) == len(scheme) || token[len(scheme)] == ' ') {
		token = strings.TrimSpace(token[len(scheme):])
	}
	return token, token != ""
}
