package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/supply-dashboard/internal/auth/domain"
	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/pkg/logger"
)

const (
	LoginPath         = "/auth/login"
	NotAuthorizedPath = "/error/not-authorized"
)

// GuardConfig lists the protected path prefixes.
type GuardConfig struct {
	Protected   []string
	AdminPrefix string
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Protected:   []string{"/dashboard", "/admin"},
		AdminPrefix: "/admin",
	}
}

// RouteGuard validates the session with the identity provider on every
// protected request. Requests without a valid session are redirected to the
// login page; non-admins are redirected away from admin pages.
func RouteGuard(cfg GuardConfig, m *metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if !hasAnyPrefix(path, cfg.Protected) {
			return c.Next()
		}

		ws := WorkspaceFrom(c)
		if ws == nil {
			m.GuardDecision("login")
			return c.Redirect(LoginPath, fiber.StatusFound)
		}

		user, err := ws.Auth.FetchCurrentUser(c.UserContext())
		if err != nil {
			m.GuardDecision("login")
			logger.Debug(c.UserContext()).Err(err).Str("path", path).Msg("Redirecting unauthenticated request")
			return c.Redirect(LoginPath, fiber.StatusFound)
		}

		if cfg.AdminPrefix != "" && hasPrefix(path, cfg.AdminPrefix) && !user.IsAdmin {
			m.GuardDecision("not_authorized")
			logger.Warn(c.UserContext()).
				Str("path", path).
				Str("username", user.Username).
				Msg("Admin access denied")
			return c.Redirect(NotAuthorizedPath, fiber.StatusFound)
		}

		m.GuardDecision("allow")
		c.Locals(localUser, user)
		return c.Next()
	}
}

// UserFrom returns the user validated by RouteGuard, or nil.
func UserFrom(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localUser).(*domain.User)
	return u
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if hasPrefix(path, p) {
			return true
		}
	}
	return false
}

// hasPrefix matches whole path segments, so "/admin" does not match "/administrator".
func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/")
}
