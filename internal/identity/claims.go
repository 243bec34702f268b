package identity

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAdminGroups are the user pool groups that grant admin access.
var DefaultAdminGroups = []string{"Admin", "ADMINS"}

// Claims is the subset of token claims the dashboard uses.
type Claims struct {
	Subject   string
	Username  string
	Email     string
	Groups    []string
	ExpiresAt time.Time
}

// ParseClaims reads claims from a token issued by the provider. Signatures
// are not verified here; the backend verifies every token it receives.
func ParseClaims(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("parse token claims: %w", err)
	}

	c := &Claims{}
	c.Subject, _ = mc.GetSubject()
	c.Username = stringClaim(mc, "cognito:username", "username")
	c.Email = stringClaim(mc, "email")

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	if raw, ok := mc["cognito:groups"].([]any); ok {
		for _, g := range raw {
			if s, ok := g.(string); ok {
				c.Groups = append(c.Groups, s)
			}
		}
	}
	return c, nil
}

// InAnyGroup reports whether the claims carry at least one of groups.
func (c *Claims) InAnyGroup(groups []string) bool {
	for _, g := range c.Groups {
		if slices.Contains(groups, g) {
			return true
		}
	}
	return false
}

func stringClaim(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := mc[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
