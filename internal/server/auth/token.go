package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// SigningKey is the HMAC secret used for access tokens. It is built once at
// startup and never mutated.
type SigningKey struct {
	secret []byte
}

// NewSigningKey copies secret into a new key.
func NewSigningKey(secret string) *SigningKey {
	return &SigningKey{secret: []byte(secret)}
}

func (k *SigningKey) empty() bool {
	return k == nil || len(k.secret) == 0
}

// TokenOptions tune validation. The zero value means no leeway, no issuer
// check and the wall clock.
type TokenOptions struct {
	// Leeway tolerates clock skew when checking exp and iat.
	Leeway time.Duration
	// Issuer, when set, is written to iss and required on validation.
	Issuer string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Claims are the validated contents of an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and validates HS256 access tokens carrying sub, iat and
// exp claims. It is safe for concurrent use.
type TokenService struct {
	key    *SigningKey
	leeway time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(key *SigningKey, opts TokenOptions) *TokenService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(opts.Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
		jwt.WithStrictDecoding(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	return &TokenService{
		key:    key,
		leeway: opts.Leeway,
		issuer: opts.Issuer,
		now:    now,
		parser: jwt.NewParser(parserOpts...),
	}
}

// Issue signs a token for subjectID valid for ttl from now.
func (s *TokenService) Issue(subjectID string, ttl time.Duration) (string, error) {
	if s.key.empty() {
		return "", oops.Code(CodeSignFailed).With("reason", "empty signing key").Wrap(common.ErrSigning)
	}
	if subjectID == "" {
		return "", oops.Code(CodeSignFailed).With("reason", "empty subject").Wrap(common.ErrSigning)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key.secret)
	if err != nil {
		return "", oops.Code(CodeSignFailed).With("reason", err.Error()).Wrap(common.ErrSigning)
	}
	return signed, nil
}

// Validate checks the signature first and then the claims. A token whose
// signature does not verify is reported as such even when it is also expired.
//
// The returned error matches common.ErrMalformedToken, common.ErrInvalidSignature
// or common.ErrTokenExpired.
func (s *TokenService) Validate(token string) (*Claims, error) {
	if s.key.empty() {
		return nil, oops.Code(CodeSignFailed).With("reason", "empty signing key").Wrap(common.ErrSigning)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && s.onlySignatureCorrupt(token) {
			return nil, oops.Code(CodeTokenBadSig).With("reason", err.Error()).Wrap(common.ErrInvalidSignature)
		}
		return nil, classifyParseError(err)
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, oops.Code(CodeTokenMalformed).With("reason", "missing required claim").Wrap(common.ErrMalformedToken)
	}

	return &Claims{
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// onlySignatureCorrupt reports whether token has a decodable header and
// payload, so that a parse failure can only come from the signature segment.
func (s *TokenService) onlySignatureCorrupt(token string) bool {
	header, rest, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	payload, _, ok := strings.Cut(rest, ".")
	if !ok {
		return false
	}
	_, _, err := s.parser.ParseUnverified(header+"."+payload+".", &jwt.RegisteredClaims{})
	return err == nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return oops.Code(CodeTokenBadSig).Wrap(common.ErrInvalidSignature)
	case errors.Is(err, jwt.ErrTokenExpired):
		return oops.Code(CodeTokenExpired).Wrap(common.ErrTokenExpired)
	default:
		return oops.Code(CodeTokenMalformed).With("reason", err.Error()).Wrap(common.ErrMalformedToken)
	}
}
