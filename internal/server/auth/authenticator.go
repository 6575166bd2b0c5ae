package auth

import (
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/samber/oops"
)

// TokenValidator is the part of TokenService the authenticator needs.
type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

// Authenticator resolves a presented access token to its subject. It holds no
// state besides the validator and is shared by all transports.
type Authenticator struct {
	tokens TokenValidator
}

func NewAuthenticator(tokens TokenValidator) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate returns the subject of a valid token. An empty token fails with
// common.ErrMissingToken; other failures come from the validator.
func (a *Authenticator) Authenticate(token string) (string, error) {
	if token == "" {
		return "", oops.Code(CodeTokenMissing).Wrap(common.ErrMissingToken)
	}
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// BearerToken extracts the token from an Authorization header value. Both
// "Bearer <token>" and a bare token are accepted; the scheme is matched
// case-insensitively.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, strings.TrimSpace(common.BearerPrefix)) {
		return ""
	}
	if len(header) >= len(common.BearerPrefix) && strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return strings.TrimSpace(header[len(common.BearerPrefix):])
	}
	return header
}
