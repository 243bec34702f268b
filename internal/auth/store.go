package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tair/supply-dashboard/internal/auth/domain"
	"github.com/tair/supply-dashboard/internal/identity"
	"github.com/tair/supply-dashboard/internal/notify"
	"github.com/tair/supply-dashboard/pkg/logger"
)

// LoginResult tells the caller where a sign-in attempt landed.
type LoginResult struct {
	IsSuccess            bool `json:"is_success"`
	RequiresConfirmation bool `json:"requires_confirmation"`
	RequiresNewPassword  bool `json:"requires_new_password"`
}

// State is a point-in-time copy of the auth store.
type State struct {
	Status          domain.Status `json:"status"`
	User            *domain.User  `json:"user,omitempty"`
	IsLoading       bool          `json:"is_loading"`
	Error           string        `json:"error,omitempty"`
	RememberedEmail string        `json:"remembered_email,omitempty"`
	RememberMe      bool          `json:"remember_me"`
	PendingUsername string        `json:"pending_username,omitempty"`
}

// Store owns the session of one browser: who is signed in, the tokens used
// against the backend, and the remembered-email preference.
type Store struct {
	provider    identity.Provider
	prefs       domain.PreferenceRepository
	notifier    notify.Notifier
	clientID    string
	adminGroups []string
	now         func() time.Time

	mu              sync.RWMutex
	status          domain.Status
	user            *domain.User
	tokens          *identity.Tokens
	signInUsername  string
	isLoading       bool
	err             string
	rememberedEmail string
	rememberMe      bool
}

// NewStore creates an anonymous auth store for the browser identified by clientID.
// prefs may be nil, in which case nothing is remembered across sessions.
func NewStore(provider identity.Provider, prefs domain.PreferenceRepository, notifier notify.Notifier, clientID string, adminGroups []string) *Store {
	if len(adminGroups) == 0 {
		adminGroups = identity.DefaultAdminGroups
	}
	if notifier == nil {
		notifier = notify.NewFlash()
	}
	return &Store{
		provider:    provider,
		prefs:       prefs,
		notifier:    notifier,
		clientID:    clientID,
		adminGroups: adminGroups,
		now:         time.Now,
		status:      domain.StatusAnonymous,
	}
}

// Login signs in with email and password.
func (s *Store) Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	s.begin(domain.StatusAuthenticating)
	s.rememberLogin(ctx, email, rememberMe)

	res, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		if identity.CodeOf(err) == identity.CodeUserNotConfirmed {
			return s.needsConfirmation(ctx, email), nil
		}
		return nil, s.fail(ctx, domain.StatusAnonymous, loginMessage(err), err, "Login failed")
	}

	switch res.NextStep {
	case identity.StepConfirmSignUp:
		return s.needsConfirmation(ctx, email), nil
	case identity.StepNewPasswordRequired:
		s.mu.Lock()
		s.status = domain.StatusNeedsNewPassword
		s.signInUsername = email
		s.isLoading = false
		s.mu.Unlock()
		s.notifier.Info(msgNewPasswordNeeded)
		logger.Info(ctx).Str("username", email).Msg("New password required")
		return &LoginResult{RequiresNewPassword: true}, nil
	}

	if !res.IsSignedIn || res.Tokens == nil {
		return nil, s.fail(ctx, domain.StatusAnonymous, "An error occurred during login", nil, "Sign-in finished without tokens")
	}

	if err := s.completeSignIn(ctx, email, res.Tokens); err != nil {
		return nil, err
	}
	s.notifier.Success(msgLoginSuccess)
	return &LoginResult{IsSuccess: true}, nil
}

// SetNewPasswordOnFirstLogin finishes a sign-in that requires a new password.
// The sign-in is replayed to obtain a fresh challenge, then answered with the
// new password and a preferred username taken from the email.
func (s *Store) SetNewPasswordOnFirstLogin(ctx context.Context, email, password, newPassword string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	s.begin(domain.StatusAuthenticating)

	res, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, s.fail(ctx, domain.StatusAnonymous, loginMessage(err), err, "Sign-in replay failed")
	}

	if res.NextStep == identity.StepNewPasswordRequired {
		attrs := map[string]string{"preferred_username": domain.DerivePreferredUsername(email)}
		res, err = s.provider.CompleteNewPassword(ctx, email, res.Session, newPassword, attrs)
		if err != nil {
			return nil, s.fail(ctx, domain.StatusNeedsNewPassword, newPasswordMessage(err), err, "Failed to set new password")
		}
	}

	if res.NextStep == identity.StepConfirmSignUp {
		return s.needsConfirmation(ctx, email), nil
	}
	if !res.IsSignedIn || res.Tokens == nil {
		return nil, s.fail(ctx, domain.StatusAnonymous, "An error occurred during login", nil, "New password flow finished without tokens")
	}

	if err := s.completeSignIn(ctx, email, res.Tokens); err != nil {
		return nil, err
	}
	s.notifier.Success(msgPasswordUpdated)
	return &LoginResult{IsSuccess: true}, nil
}

// Logout signs out remotely when possible. Local state is cleared regardless.
func (s *Store) Logout(ctx context.Context) {
	s.mu.RLock()
	tokens := s.tokens
	s.mu.RUnlock()

	if tokens != nil && tokens.AccessToken != "" {
		if err := s.provider.SignOut(ctx, tokens.AccessToken); err != nil {
			logger.Warn(ctx).Err(err).Msg("Remote sign-out failed")
		}
	}

	s.clearSession("")
	s.notifier.Success(msgLogoutSuccess)
	logger.Info(ctx).Msg("User logged out")
}

// FetchCurrentUser re-reads the signed-in user from the provider. The session
// is cleared when it cannot be validated.
func (s *Store) FetchCurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.RLock()
	tokens := s.tokens
	s.mu.RUnlock()

	if tokens == nil {
		s.clearSession("")
		return nil, ErrNotAuthenticated
	}

	if tokens.Expired(s.now()) {
		if err := s.RefreshSession(ctx); err != nil {
			return nil, err
		}
		s.mu.RLock()
		tokens = s.tokens
		s.mu.RUnlock()
	}

	user, err := s.loadUser(ctx, tokens)
	if err != nil {
		s.clearSession(msgSessionUnavailable)
		logger.Warn(ctx).Err(err).Msg("Failed to fetch current user")
		return nil, fmt.Errorf("fetch current user: %w", err)
	}

	s.mu.Lock()
	if s.tokens == tokens {
		s.user = user
		s.status = domain.StatusAuthenticated
		s.err = ""
	}
	s.mu.Unlock()
	return user.Clone(), nil
}

// RefreshSession exchanges the refresh token for new access and ID tokens.
func (s *Store) RefreshSession(ctx context.Context) error {
	s.mu.RLock()
	tokens := s.tokens
	username := s.signInUsername
	if s.user != nil && s.user.Username != "" {
		username = s.user.Username
	}
	s.mu.RUnlock()

	if tokens == nil || tokens.RefreshToken == "" {
		s.clearSession("")
		return ErrNotAuthenticated
	}

	fresh, err := s.provider.Refresh(ctx, username, tokens.RefreshToken)
	if err != nil {
		s.clearSession(msgSessionUnavailable)
		logger.Warn(ctx).Err(err).Msg("Session refresh failed")
		return fmt.Errorf("refresh session: %w", err)
	}

	s.mu.Lock()
	s.tokens = fresh
	if s.user != nil {
		s.user.IDToken = fresh.IDToken
	}
	s.mu.Unlock()
	logger.Debug(ctx).Msg("Session refreshed")
	return nil
}

// RequestPasswordReset sends a reset code to email.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	s.begin("")
	if err := s.provider.ResetPassword(ctx, strings.TrimSpace(email)); err != nil {
		return s.fail(ctx, "", resetMessage(err), err, "Password reset request failed")
	}
	s.done()
	s.notifier.Success(msgResetCodeSent)
	return nil
}

// ConfirmPasswordReset sets a new password using the emailed code.
func (s *Store) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	s.begin("")
	if err := s.provider.ConfirmResetPassword(ctx, strings.TrimSpace(email), strings.TrimSpace(code), newPassword); err != nil {
		return s.fail(ctx, "", confirmResetMessage(err), err, "Password reset confirmation failed")
	}
	s.done()
	s.notifier.Success(msgResetSuccess)
	return nil
}

// ConfirmSignUp confirms a new account with the emailed code.
func (s *Store) ConfirmSignUp(ctx context.Context, email, code string) error {
	s.begin("")
	if err := s.provider.ConfirmSignUp(ctx, strings.TrimSpace(email), strings.TrimSpace(code)); err != nil {
		return s.fail(ctx, "", confirmSignUpMessage(err), err, "Sign-up confirmation failed")
	}

	s.mu.Lock()
	if s.status == domain.StatusNeedsConfirmation {
		s.status = domain.StatusAnonymous
	}
	s.isLoading = false
	s.mu.Unlock()
	s.notifier.Success(msgEmailConfirmed)
	return nil
}

// ResendConfirmationCode sends a new sign-up code to email.
func (s *Store) ResendConfirmationCode(ctx context.Context, email string) error {
	s.begin("")
	if err := s.provider.ResendSignUpCode(ctx, strings.TrimSpace(email)); err != nil {
		return s.fail(ctx, "", resendMessage(err), err, "Resending confirmation code failed")
	}
	s.done()
	s.notifier.Success(msgCodeResent)
	return nil
}

// UpdateProfile changes the signed-in user's preferred username.
func (s *Store) UpdateProfile(ctx context.Context, preferredUsername string) (*domain.User, error) {
	preferredUsername = strings.TrimSpace(preferredUsername)

	s.mu.RLock()
	tokens := s.tokens
	s.mu.RUnlock()
	if tokens == nil {
		return nil, ErrNotAuthenticated
	}
	if preferredUsername == "" {
		return nil, &Failure{Message: "Preferred username is required"}
	}

	s.begin("")
	attrs := map[string]string{"preferred_username": preferredUsername}
	if err := s.provider.UpdateUserAttributes(ctx, tokens.AccessToken, attrs); err != nil {
		return nil, s.fail(ctx, "", MessageFor(err, "An error occurred while updating your profile"), err, "Profile update failed")
	}

	s.mu.Lock()
	var user *domain.User
	if s.user != nil {
		if s.user.Attributes == nil {
			s.user.Attributes = map[string]string{}
		}
		s.user.Attributes["preferred_username"] = preferredUsername
		user = s.user.Clone()
	}
	s.isLoading = false
	s.mu.Unlock()

	s.notifier.Success(msgProfileUpdated)
	return user, nil
}

// LoadPreferences reads the remembered email for this browser.
func (s *Store) LoadPreferences(ctx context.Context) error {
	if s.prefs == nil {
		return nil
	}
	pref, err := s.prefs.Find(ctx, s.clientID)
	if errors.Is(err, domain.ErrPreferenceNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rememberMe = pref.RememberMe
	if pref.RememberMe {
		s.rememberedEmail = pref.RememberedEmail
	}
	return nil
}

// RememberedEmail returns the email to pre-fill on the login form.
func (s *Store) RememberedEmail() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rememberedEmail, s.rememberMe
}

// Token returns the bearer token for backend calls, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.IDToken
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status == domain.StatusAuthenticated && s.user != nil
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin
}

// HasSession reports whether tokens are held, validated or not.
func (s *Store) HasSession() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens != nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Status:          s.status,
		User:            s.user.Clone(),
		IsLoading:       s.isLoading,
		Error:           s.err,
		RememberedEmail: s.rememberedEmail,
		RememberMe:      s.rememberMe,
		PendingUsername: s.signInUsername,
	}
}

func (s *Store) completeSignIn(ctx context.Context, username string, tokens *identity.Tokens) error {
	s.mu.Lock()
	s.tokens = tokens
	s.signInUsername = username
	s.mu.Unlock()

	user, err := s.FetchCurrentUser(ctx)
	if err != nil {
		msg := MessageFor(err, "An error occurred during login")
		s.mu.Lock()
		s.isLoading = false
		s.err = msg
		s.mu.Unlock()
		s.notifier.Error(msg)
		return &Failure{Message: msg, Err: err}
	}

	s.mu.Lock()
	s.isLoading = false
	s.mu.Unlock()
	logger.Info(ctx).
		Str("username", user.Username).
		Bool("is_admin", user.IsAdmin).
		Msg("User logged in")
	return nil
}

func (s *Store) loadUser(ctx context.Context, tokens *identity.Tokens) (*domain.User, error) {
	info, err := s.provider.GetUser(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:   info.Username,
		UserID:     info.Attributes["sub"],
		Email:      info.Attributes["email"],
		Attributes: make(map[string]string, len(info.Attributes)),
		IDToken:    tokens.IDToken,
	}
	for k, v := range info.Attributes {
		user.Attributes[k] = v
	}

	if tokens.IDToken != "" {
		claims, err := identity.ParseClaims(tokens.IDToken)
		if err != nil {
			return nil, err
		}
		user.IsAdmin = claims.InAnyGroup(s.adminGroups)
		if user.UserID == "" {
			user.UserID = claims.Subject
		}
		if user.Email == "" {
			user.Email = claims.Email
		}
	}
	if user.UserID == "" {
		user.UserID = user.Username
	}

	s.ensurePreferredUsername(ctx, tokens, user)
	return user, nil
}

// ensurePreferredUsername fills preferred_username from the account identifier
// when the account has none.
func (s *Store) ensurePreferredUsername(ctx context.Context, tokens *identity.Tokens, user *domain.User) {
	if user.PreferredUsername() != "" {
		return
	}
	source := user.Email
	if source == "" {
		source = user.Username
	}
	name := domain.DerivePreferredUsername(source)
	if name == "" {
		return
	}

	if err := s.provider.UpdateUserAttributes(ctx, tokens.AccessToken, map[string]string{"preferred_username": name}); err != nil {
		logger.Warn(ctx).Err(err).Str("username", user.Username).Msg("Failed to set preferred username")
		return
	}
	user.Attributes["preferred_username"] = name
}

func (s *Store) rememberLogin(ctx context.Context, email string, rememberMe bool) {
	s.mu.Lock()
	s.rememberMe = rememberMe
	if rememberMe {
		s.rememberedEmail = email
	} else {
		s.rememberedEmail = ""
	}
	s.mu.Unlock()

	if s.prefs == nil {
		return
	}
	var err error
	if rememberMe {
		err = s.prefs.Save(ctx, &domain.Preference{
			ClientID:        s.clientID,
			RememberedEmail: email,
			RememberMe:      true,
			UpdatedAt:       s.now().UTC(),
		})
	} else {
		err = s.prefs.Delete(ctx, s.clientID)
	}
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to persist login preference")
	}
}

func (s *Store) needsConfirmation(ctx context.Context, email string) *LoginResult {
	s.mu.Lock()
	s.status = domain.StatusNeedsConfirmation
	s.signInUsername = email
	s.isLoading = false
	s.err = ""
	s.mu.Unlock()
	s.notifier.Info(msgConfirmAccount)
	logger.Info(ctx).Str("username", email).Msg("Account requires confirmation")
	return &LoginResult{RequiresConfirmation: true}
}

// begin marks an operation in flight. An empty status leaves the status as is.
func (s *Store) begin(status domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = true
	s.err = ""
	if status != "" {
		s.status = status
	}
}

func (s *Store) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false
}

func (s *Store) fail(ctx context.Context, status domain.Status, msg string, err error, logMsg string) error {
	s.mu.Lock()
	s.isLoading = false
	s.err = msg
	if status != "" {
		s.status = status
	}
	s.mu.Unlock()

	s.notifier.Error(msg)
	logger.Warn(ctx).Err(err).Str("message", msg).Msg(logMsg)
	return &Failure{Message: msg, Err: err}
}

func (s *Store) clearSession(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.tokens = nil
	s.status = domain.StatusAnonymous
	s.isLoading = false
	s.err = errMsg
}
