package identity

import (
	"context"
	"time"
)

// SignInStep is what the provider needs next before a session is issued.
type SignInStep string

const (
	StepDone                SignInStep = "DONE"
	StepConfirmSignUp       SignInStep = "CONFIRM_SIGN_UP"
	StepNewPasswordRequired SignInStep = "CONFIRM_SIGN_IN_WITH_NEW_PASSWORD_REQUIRED"
)

// Tokens are the credentials issued for an authenticated session.
type Tokens struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past its expiry at now.
func (t *Tokens) Expired(now time.Time) bool {
	return t == nil || (!t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt))
}

// SignInResult is the outcome of a sign-in attempt that did not error.
type SignInResult struct {
	IsSignedIn bool
	NextStep   SignInStep
	// Session continues a challenge such as a forced password change.
	Session string
	Tokens  *Tokens
}

// UserInfo is the profile returned for an access token.
type UserInfo struct {
	Username   string
	Attributes map[string]string
}

// Provider is the managed identity service the dashboard authenticates against.
type Provider interface {
	SignIn(ctx context.Context, username, password string) (*SignInResult, error)
	CompleteNewPassword(ctx context.Context, username, session, newPassword string, attributes map[string]string) (*SignInResult, error)
	Refresh(ctx context.Context, username, refreshToken string) (*Tokens, error)
	SignOut(ctx context.Context, accessToken string) error

	ConfirmSignUp(ctx context.Context, username, code string) error
	ResendSignUpCode(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, username string) error
	ConfirmResetPassword(ctx context.Context, username, code, newPassword string) error

	GetUser(ctx context.Context, accessToken string) (*UserInfo, error)
	UpdateUserAttributes(ctx context.Context, accessToken string, attributes map[string]string) error
}
