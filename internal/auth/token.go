package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// VerificationKind classifies why a token failed verification.
type VerificationKind int

const (
	// Malformed tokens cannot be decoded into header, claims and signature.
	Malformed VerificationKind = iota + 1
	// BadSignature tokens were tampered with or signed by another key or algorithm.
	BadSignature
	// Expired tokens carry a valid signature but their expiry has been reached.
	Expired
)

func (k VerificationKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case BadSignature:
		return "bad signature"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// VerificationError is returned by TokenCodec.Verify.
type VerificationError struct {
	Kind VerificationKind
	Err  error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return "token " + e.Kind.String()
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// IsVerificationKind reports whether err is a VerificationError of the given kind.
func IsVerificationKind(err error, kind VerificationKind) bool {
	var verr *VerificationError
	return errors.As(err, &verr) && verr.Kind == kind
}

// Claims describes the JWT payload.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// IdentityRef returns the user id embedded in the token.
func (c *Claims) IdentityRef() (uuid.UUID, bool) {
	if c == nil || c.UserID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.UserID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock replaces the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(tc *TokenCodec) {
		if now != nil {
			tc.now = now
		}
	}
}

// TokenCodec issues and verifies HS256 signed tokens. It holds no mutable state and is
// safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenCodec builds a codec around the process-wide signing secret.
func NewTokenCodec(secret string, ttl time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	tc := &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		// Expiry is checked against tc.now below so that "at expiry" counts as expired.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc, nil
}

// TTL returns the fixed lifetime of issued tokens.
func (tc *TokenCodec) TTL() time.Duration {
	return tc.ttl
}

// Issue signs a token for the given identity.
func (tc *TokenCodec) Issue(identityRef uuid.UUID) (string, time.Time, error) {
	if identityRef == uuid.Nil {
		return "", time.Time{}, errors.New("identity reference required")
	}
	issuedAt := tc.now()
	expiresAt := issuedAt.Add(tc.ttl)
	claims := &Claims{
		UserID: identityRef.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identityRef.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature of tokenStr and, when requireUnexpired is set, its expiry.
// Signature checks use hmac.Equal and are constant time.
func (tc *TokenCodec) Verify(tokenStr string, requireUnexpired bool) (*Claims, error) {
	if tokenStr == "" {
		return nil, &VerificationError{Kind: Malformed, Err: errors.New("empty token")}
	}

	claims := &Claims{}
	_, err := tc.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tc.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if requireUnexpired {
		if claims.ExpiresAt == nil {
			return nil, &VerificationError{Kind: Malformed, Err: errors.New("missing exp claim")}
		}
		if !claims.ExpiresAt.Time.After(tc.now()) {
			return nil, &VerificationError{Kind: Expired}
		}
	}
	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &VerificationError{Kind: Malformed, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &VerificationError{Kind: BadSignature, Err: err}
	default:
		return &VerificationError{Kind: Malformed, Err: err}
	}
}
