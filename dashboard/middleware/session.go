package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/tair/supply-dashboard/internal/workspace"
	"github.com/tair/supply-dashboard/pkg/logger"
)

const (
	localClientID  = "client_id"
	localWorkspace = "workspace"
	localUser      = "user"
)

// SessionConfig controls the browser session cookie
type SessionConfig struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

// SessionMiddleware binds each request to the workspace of its browser,
// issuing a session cookie on first contact.
func SessionMiddleware(registry *workspace.Registry, cfg SessionConfig) fiber.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "dashboard_session"
	}

	return func(c *fiber.Ctx) error {
		// The id outlives the request as a registry and preference key.
		id := utils.CopyString(c.Cookies(cfg.CookieName))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(cfg.MaxAge.Seconds()),
			Secure:   cfg.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		c.SetUserContext(logger.WithClientID(c.UserContext(), id))
		c.Locals(localClientID, id)
		c.Locals(localWorkspace, registry.Get(c.UserContext(), workspace.ClientID(id)))
		return c.Next()
	}
}

// WorkspaceFrom returns the workspace bound by SessionMiddleware.
func WorkspaceFrom(c *fiber.Ctx) *workspace.Workspace {
	ws, _ := c.Locals(localWorkspace).(*workspace.Workspace)
	return ws
}

// ClientIDFrom returns the session id bound by SessionMiddleware.
func ClientIDFrom(c *fiber.Ctx) workspace.ClientID {
	id, _ := c.Locals(localClientID).(string)
	return workspace.ClientID(id)
}
