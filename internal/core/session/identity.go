package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultDisplayName is shown when the token carries no usable name claim.
const DefaultDisplayName = "Investor"

var ErrInvalidToken = errors.New("invalid token")

// Identity is what the client may learn from a bearer credential.
type Identity struct {
	Subject     string
	DisplayName string
	ExpiresAt   time.Time
}

type IdentityProvider interface {
	Identify(token string) (Identity, error)
}

var (
	nameClaims    = []string{"username", "name", "user", "full_name", "first_name"}
	subjectClaims = []string{"user_id", "sub", "uid"}
)

// JWTIdentityProvider reads the claims of a bearer token. Without a key the
// signature is not checked and the backend validates the credential on
// every call; with a key the token must be HS256-signed with it.
type JWTIdentityProvider struct {
	parser *jwt.Parser
	key    []byte
}

func NewJWTIdentityProvider() *JWTIdentityProvider {
	return &JWTIdentityProvider{parser: jwt.NewParser()}
}

// NewVerifyingJWTIdentityProvider rejects tokens not signed with key. An
// empty key falls back to reading claims only.
func NewVerifyingJWTIdentityProvider(key []byte) *JWTIdentityProvider {
	if len(key) == 0 {
		return NewJWTIdentityProvider()
	}
	return &JWTIdentityProvider{
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		key:    key,
	}
}

func (p *JWTIdentityProvider) Identify(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	if err := p.parse(token, claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity := Identity{
		Subject:     subject(claims),
		DisplayName: displayName(claims),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	return identity, nil
}

func (p *JWTIdentityProvider) parse(token string, claims jwt.MapClaims) error {
	if p.key == nil {
		_, _, err := p.parser.ParseUnverified(token, claims)
		return err
	}
	_, err := p.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.key, nil
	})
	return err
}

func displayName(claims jwt.MapClaims) string {
	for _, key := range nameClaims {
		v, ok := claims[key].(string)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || strings.Contains(v, "@") {
			continue
		}
		return v
	}
	return DefaultDisplayName
}

// subject returns the stable user id; simplejwt issues it as a number.
func subject(claims jwt.MapClaims) string {
	for _, key := range subjectClaims {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}
