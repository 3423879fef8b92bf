package bluesky

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshSkew is how far ahead of actual expiry we refresh, so a request
// in flight doesn't race a token that expires mid-call.
const refreshSkew = 60 * time.Second

// session tracks the authenticated tokens for a Client and when the access
// token needs renewing. AT Protocol access tokens are short-lived JWTs; we
// only need their exp claim, so we parse them without verifying the
// signature rather than pulling in the PDS's signing keys.
type session struct {
	accessJwt  string
	refreshJwt string
	did        string
	expiresAt  time.Time
}

func newSession(accessJwt, refreshJwt, did string) *session {
	return &session{
		accessJwt:  accessJwt,
		refreshJwt: refreshJwt,
		did:        did,
		expiresAt:  parseExpiry(accessJwt),
	}
}

func (s *session) needsRefresh() bool {
	if s.expiresAt.IsZero() {
		return false
	}
	return time.Now().Add(refreshSkew).After(s.expiresAt)
}

// parseExpiry reads the exp claim from a JWT without verifying its
// signature: we trust the PDS we just authenticated with to have issued it,
// and only need to know when to ask for a new one.
func parseExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
