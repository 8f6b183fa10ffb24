package upstream

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair is the access/refresh pair issued by the appointment backend.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Credentials holds one talent's upstream tokens. It is shared by every request
// made on behalf of that talent, so all access goes through the mutex.
type Credentials struct {
	mu         sync.RWMutex
	access     string
	refresh    string
	generation uint64
	revoked    bool
}

// NewCredentials wraps a freshly issued token pair.
func NewCredentials(pair TokenPair) *Credentials {
	return &Credentials{access: pair.Access, refresh: pair.Refresh}
}

// Access returns the current access token and the generation it belongs to.
func (c *Credentials) Access() (string, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access, c.generation
}

// RefreshToken returns the current refresh token.
func (c *Credentials) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresh
}

// Generation increments every time the access token is replaced.
func (c *Credentials) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Revoked reports whether a failed refresh has invalidated these credentials.
func (c *Credentials) Revoked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revoked
}

// Revoke drops both tokens. Further requests fail with ErrReauthRequired.
func (c *Credentials) Revoke() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = ""
	c.refresh = ""
	c.revoked = true
}

func (c *Credentials) rotate(pair TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = pair.Access
	if pair.Refresh != "" {
		c.refresh = pair.Refresh
	}
	c.generation++
}

// TokenExpiry reads the exp claim without verifying the signature. Opaque tokens report ok=false.
func TokenExpiry(token string) (time.Time, bool) {
	claims, ok := parseUnverified(token)
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenUsable reports whether an access token should be attached to a request.
// Tokens without a readable expiry are sent and left for the backend to judge.
func TokenUsable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	exp, ok := TokenExpiry(token)
	if !ok {
		return true
	}
	return now.Before(exp)
}

// TokenUserID extracts the backend user id from the user_id claim, falling back to sub.
func TokenUserID(token string) string {
	claims, ok := parseUnverified(token)
	if !ok {
		return ""
	}
	if id := idString(claims["user_id"]); id != "" {
		return id
	}
	sub, _ := claims.GetSubject()
	return sub
}

// idString renders a backend id that may arrive as a JSON number or string.
func idString(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func parseUnverified(token string) (jwt.MapClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
