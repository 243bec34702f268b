package views

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/tair/supply-dashboard/dashboard/middleware"
	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/auth"
	"github.com/tair/supply-dashboard/internal/auth/domain"
	"github.com/tair/supply-dashboard/internal/notify"
	"github.com/tair/supply-dashboard/internal/workspace"
)

// Page is the view-model every dashboard endpoint responds with.
type Page struct {
	View     string          `json:"view"`
	Data     any             `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
	User     *domain.User    `json:"user,omitempty"`
	Notices  []notify.Notice `json:"notices,omitempty"`
}

// Handler serves the dashboard views from the request's workspace.
type Handler struct {
	registry *workspace.Registry
}

func NewHandler(registry *workspace.Registry) *Handler {
	return &Handler{registry: registry}
}

// render writes page with the workspace's pending notices attached.
func render(c *fiber.Ctx, status int, page Page) error {
	if ws := middleware.WorkspaceFrom(c); ws != nil {
		page.Notices = ws.Flash.Drain()
	}
	if page.User == nil {
		page.User = middleware.UserFrom(c)
	}
	return c.Status(status).JSON(page)
}

// fail renders page with err's user-facing message.
func fail(c *fiber.Ctx, status int, page Page, err error, fallback string) error {
	page.Error = errorMessage(err, fallback)
	return render(c, status, page)
}

func errorMessage(err error, fallback string) string {
	var f *auth.Failure
	if errors.As(err, &f) || errors.Is(err, auth.ErrPasswordMismatch) || errors.Is(err, auth.ErrNotAuthenticated) {
		return auth.MessageFor(err, fallback)
	}
	return apiclient.Message(err, fallback)
}

// backendStatus maps a store failure to the response status: missing
// records are 404, everything else is a bad gateway.
func backendStatus(err error) int {
	if apiclient.IsNotFound(err) {
		return fiber.StatusNotFound
	}
	return fiber.StatusBadGateway
}

// param returns a route parameter safe to keep after the request. Stores use
// parameters as cache keys, and Fiber's values alias the request buffer.
func param(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.Params(key))
}

func withEmail(path, email string) string {
	if email == "" {
		return path
	}
	return path + "?email=" + url.QueryEscape(email)
}

func badRequest(c *fiber.Ctx, view, msg string) error {
	return render(c, fiber.StatusBadRequest, Page{View: view, Error: msg})
}
