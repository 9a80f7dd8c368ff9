package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// LinkSigner issues short-lived tokens granting read access to one stored file.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type LinkClaims struct {
	Path string `json:"path"`
	jwtlib.RegisteredClaims
}

func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for path and the moment it stops being accepted.
func (s *LinkSigner) Sign(path string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	token, err := sign(s.secret, LinkClaims{
		Path: path,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(expires),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Verify returns the path a valid token grants access to.
func (s *LinkSigner) Verify(token string) (string, error) {
	claims := &LinkClaims{}
	if err := parse(s.secret, token, claims); err != nil {
		return "", err
	}
	if claims.Path == "" {
		return "", ErrInvalidClaims
	}
	return claims.Path, nil
}
