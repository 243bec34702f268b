package views

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tair/supply-dashboard/dashboard/middleware"
	"github.com/tair/supply-dashboard/internal/auth/domain"
)

const viewProfile = "profile"

type profileData struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	IsAdmin           bool   `json:"is_admin"`
}

type profileRequest struct {
	PreferredUsername string `json:"preferred_username" form:"preferred_username"`
}

func toProfile(u *domain.User) profileData {
	if u == nil {
		return profileData{}
	}
	return profileData{
		Username:          u.Username,
		Email:             u.Email,
		PreferredUsername: u.PreferredUsername(),
		IsAdmin:           u.IsAdmin,
	}
}

// Profile godoc
// @Summary Profile
// @Description Signed-in user profile (session required)
// @Tags Profile
// @Produce json
// @Success 200 {object} Page
// @Router /dashboard/profile [get]
func (h *Handler) Profile(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, Page{View: viewProfile, Data: toProfile(middleware.UserFrom(c))})
}

// UpdateProfile changes the display name of the signed-in user.
//
// @Summary Update profile
// @Description Change the preferred username (session required)
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body object{preferred_username=string} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Router /dashboard/profile [put]
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, viewProfile, "Invalid request body")
	}

	ws := middleware.WorkspaceFrom(c)
	user, err := ws.Auth.UpdateProfile(c.UserContext(), req.PreferredUsername)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, Page{View: viewProfile, Data: toProfile(middleware.UserFrom(c))}, err, "An error occurred while updating your profile")
	}
	return render(c, fiber.StatusOK, Page{View: viewProfile, Data: toProfile(user), User: user})
}
