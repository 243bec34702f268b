package views

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/supply-dashboard/dashboard/middleware"
	"github.com/tair/supply-dashboard/internal/auth"
	"github.com/tair/supply-dashboard/pkg/logger"
)

const (
	viewLogin          = "login"
	viewNewPassword    = "new-password"
	viewConfirmEmail   = "confirm-email"
	viewForgotPassword = "forgot-password"
	viewNotAuthorized  = "not-authorized"

	productsPath     = "/dashboard/products"
	confirmEmailPath = "/auth/confirm-email"
	newPasswordPath  = "/auth/new-password"
)

type loginRequest struct {
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

type newPasswordRequest struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type codeRequest struct {
	Email           string `json:"email" form:"email"`
	Code            string `json:"code" form:"code"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type loginData struct {
	Email      string `json:"email"`
	RememberMe bool   `json:"remember_me"`
	Status     string `json:"status"`
}

// LoginPage renders the login form, pre-filled with the remembered email or
// the email passed in the query.
//
// @Summary Login form
// @Description Login form with the remembered email
// @Tags Auth
// @Produce json
// @Param email query string false "Email to prefill"
// @Success 200 {object} Page
// @Router /auth/login [get]
func (h *Handler) LoginPage(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	email, remember := ws.Auth.RememberedEmail()
	if q := c.Query("email"); q != "" {
		email = q
	}
	state := ws.Auth.State()
	return render(c, fiber.StatusOK, Page{
		View:  viewLogin,
		Data:  loginData{Email: email, RememberMe: remember, Status: string(state.Status)},
		Error: state.Error,
	})
}

// Login godoc
// @Summary Sign in
// @Description Sign in with email and password. Rate limited per client
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string,remember_me=bool} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 401 {object} object{view=string,error=string}
// @Failure 429 {object} object{view=string,error=string}
// @Router /auth/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, viewLogin, "Invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return badRequest(c, viewLogin, "Email and password are required")
	}

	ws := middleware.WorkspaceFrom(c)
	res, err := ws.Auth.Login(c.UserContext(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, Page{View: viewLogin, Data: loginData{Email: req.Email, RememberMe: req.RememberMe}}, err, "An error occurred during login")
	}

	page := Page{View: viewLogin, Data: res}
	switch {
	case res.RequiresConfirmation:
		page.View = viewConfirmEmail
		page.Redirect = withEmail(confirmEmailPath, req.Email)
	case res.RequiresNewPassword:
		page.View = viewNewPassword
		page.Redirect = withEmail(newPasswordPath, req.Email)
	default:
		page.Redirect = productsPath
		page.User = ws.Auth.User()
	}
	return render(c, fiber.StatusOK, page)
}

// NewPassword completes a first sign-in that requires a password change.
//
// @Summary Set new password
// @Description Complete a first sign-in that requires a password change
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string,new_password=string,confirm_password=string} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 429 {object} object{view=string,error=string}
// @Router /auth/new-password [post]
func (h *Handler) NewPassword(c *fiber.Ctx) error {
	var req newPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, viewNewPassword, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.NewPassword == "" {
		return badRequest(c, viewNewPassword, "Email, current password and new password are required")
	}
	if err := auth.CheckPasswordsMatch(req.NewPassword, req.ConfirmPassword); err != nil {
		return fail(c, fiber.StatusBadRequest, Page{View: viewNewPassword}, err, "")
	}

	ws := middleware.WorkspaceFrom(c)
	res, err := ws.Auth.SetNewPasswordOnFirstLogin(c.UserContext(), req.Email, req.Password, req.NewPassword)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, Page{View: viewNewPassword}, err, "Failed to set new password")
	}

	page := Page{View: viewNewPassword, Data: res, Redirect: productsPath, User: ws.Auth.User()}
	if res.RequiresConfirmation {
		page.View = viewConfirmEmail
		page.Redirect = withEmail(confirmEmailPath, req.Email)
	}
	return render(c, fiber.StatusOK, page)
}

// ConfirmEmail godoc
// @Summary Confirm account
// @Description Confirm a new account with the emailed code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object{email=string,code=string} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 429 {object} object{view=string,error=string}
// @Router /auth/confirm-email [post]
func (h *Handler) ConfirmEmail(c *fiber.Ctx) error {
	var req codeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, viewConfirmEmail, "Invalid request body")
	}
	if req.Email == "" || strings.TrimSpace(req.Code) == "" {
		return badRequest(c, viewConfirmEmail, "Email and confirmation code are required")
	}

	ws := middleware.WorkspaceFrom(c)
	if err := ws.Auth.ConfirmSignUp(c.UserContext(), req.Email, req.Code); err != nil {
		return fail(c, fiber.StatusBadRequest, Page{View: viewConfirmEmail}, err, "Failed to confirm email")
	}
	return render(c, fiber.StatusOK, Page{View: viewConfirmEmail, Redirect: withEmail(middleware.LoginPath, req.Email)})
}

// ResendConfirmation godoc
// @Summary Resend confirmation code
// @Description Send the account confirmation code again
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 429 {object} object{view=string,error=string}
// @Router /auth/confirm-email/resend [post]
func (h *Handler) ResendConfirmation(c *fiber.Ctx) error {
	var req codeRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return badRequest(c, viewConfirmEmail, "Email is required")
	}

	ws := middleware.WorkspaceFrom(c)
	if err := ws.Auth.ResendConfirmationCode(c.UserContext(), req.Email); err != nil {
		return fail(c, fiber.StatusBadRequest, Page{View: viewConfirmEmail}, err, "Failed to resend verification code")
	}
	return render(c, fiber.StatusOK, Page{View: viewConfirmEmail})
}

// ForgotPassword sends a reset code; the form then moves to the code step.
//
// @Summary Request password reset
// @Description Send a password reset code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 429 {object} object{view=string,error=string}
// @Router /auth/forgot-password [post]
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req codeRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return badRequest(c, viewForgotPassword, "Email is required")
	}

	ws := middleware.WorkspaceFrom(c)
	if err := ws.Auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return fail(c, fiber.StatusBadRequest, Page{View: viewForgotPassword}, err, "Failed to send reset code")
	}
	return render(c, fiber.StatusOK, Page{View: viewForgotPassword, Data: fiber.Map{"step": "confirm", "email": req.Email}})
}

// ConfirmForgotPassword godoc
// @Summary Reset password
// @Description Reset the password with the emailed code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object{email=string,code=string,new_password=string,confirm_password=string} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 429 {object} object{view=string,error=string}
// @Router /auth/forgot-password/confirm [post]
func (h *Handler) ConfirmForgotPassword(c *fiber.Ctx) error {
	var req codeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, viewForgotPassword, "Invalid request body")
	}
	if req.Email == "" || strings.TrimSpace(req.Code) == "" || req.NewPassword == "" {
		return badRequest(c, viewForgotPassword, "Email, code and new password are required")
	}
	if err := auth.CheckPasswordsMatch(req.NewPassword, req.ConfirmPassword); err != nil {
		return fail(c, fiber.StatusBadRequest, Page{View: viewForgotPassword}, err, "")
	}

	ws := middleware.WorkspaceFrom(c)
	if err := ws.Auth.ConfirmPasswordReset(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return fail(c, fiber.StatusBadRequest, Page{View: viewForgotPassword, Data: fiber.Map{"step": "confirm", "email": req.Email}}, err, "Failed to reset password")
	}
	return render(c, fiber.StatusOK, Page{View: viewForgotPassword, Redirect: withEmail(middleware.LoginPath, req.Email)})
}

// Logout signs out and discards the session's workspace. The logout notice
// is returned with this response since the workspace does not survive it.
//
// @Summary Sign out
// @Description Sign out and discard the session workspace
// @Tags Auth
// @Produce json
// @Success 200 {object} Page
// @Router /auth/logout [post]
func (h *Handler) Logout(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	ws.Auth.Logout(c.UserContext())

	page := Page{View: viewLogin, Redirect: middleware.LoginPath, Notices: ws.Flash.Drain()}
	h.registry.Remove(middleware.ClientIDFrom(c))
	logger.Debug(c.UserContext()).Msg("Workspace discarded on logout")
	return c.Status(fiber.StatusOK).JSON(page)
}

// NotAuthorized godoc
// @Summary Not authorized
// @Description Shown when admin access is denied
// @Tags Auth
// @Produce json
// @Failure 403 {object} Page
// @Router /error/not-authorized [get]
func (h *Handler) NotAuthorized(c *fiber.Ctx) error {
	return render(c, fiber.StatusForbidden, Page{
		View:  viewNotAuthorized,
		Error: "You do not have permission to view this page",
	})
}
