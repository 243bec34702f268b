package auth

import (
	"errors"

	"github.com/tair/supply-dashboard/internal/identity"
)

const (
	msgIncorrectCredentials = "Incorrect username or password"
	msgUserNotFoundLogin    = "User does not exist"
	msgConfirmBeforeLogin   = "Please confirm your email before logging in"
	msgNoAccount            = "No account found with this email address"
	msgTooManyAttempts      = "Too many attempts. Please try again later"
	msgPasswordRequirements = "Password does not meet requirements"
	msgPasswordMismatch     = "Passwords do not match"

	msgLoginSuccess       = "Login successful"
	msgLogoutSuccess      = "Logged out successfully"
	msgResetCodeSent      = "Password reset code sent to your email"
	msgResetSuccess       = "Password reset successful"
	msgEmailConfirmed     = "Email confirmed successfully"
	msgCodeResent         = "Verification code resent to your email"
	msgPasswordUpdated    = "Password updated successfully"
	msgConfirmAccount     = "Please confirm your email account"
	msgNewPasswordNeeded  = "You need to create a new password"
	msgProfileUpdated     = "Profile updated successfully"
	msgNotAuthenticated   = "You are not signed in"
	msgSessionUnavailable = "Failed to load user session"
)

var (
	// ErrPasswordMismatch is returned when a password and its confirmation differ.
	ErrPasswordMismatch = errors.New(msgPasswordMismatch)
	// ErrNotAuthenticated is returned when an operation needs a session and there is none.
	ErrNotAuthenticated = errors.New(msgNotAuthenticated)
)

// Failure is an auth flow error carrying the message shown to the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// MessageFor returns the user-facing message for an auth error.
func MessageFor(err error, fallback string) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	if errors.Is(err, ErrPasswordMismatch) || errors.Is(err, ErrNotAuthenticated) {
		return err.Error()
	}
	if msg := identity.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}

// CheckPasswordsMatch validates a password against its confirmation.
func CheckPasswordsMatch(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func loginMessage(err error) string {
	switch identity.CodeOf(err) {
	case identity.CodeUserNotConfirmed:
		return msgConfirmBeforeLogin
	case identity.CodeNotAuthorized:
		return msgIncorrectCredentials
	case identity.CodeUserNotFound:
		return msgUserNotFoundLogin
	case identity.CodeLimitExceeded, identity.CodeTooManyRequests:
		return msgTooManyAttempts
	}
	return MessageFor(err, "An error occurred during login")
}

func resetMessage(err error) string {
	switch identity.CodeOf(err) {
	case identity.CodeUserNotFound:
		return msgNoAccount
	case identity.CodeLimitExceeded, identity.CodeTooManyRequests:
		return msgTooManyAttempts
	}
	return MessageFor(err, "Failed to send reset code")
}

func confirmResetMessage(err error) string {
	switch identity.CodeOf(err) {
	case identity.CodeCodeMismatch:
		return "Invalid verification code"
	case identity.CodeExpiredCode:
		return "Verification code has expired. Please request a new one"
	case identity.CodeInvalidPassword:
		if msg := identity.MessageOf(err); msg != "" {
			return msg
		}
		return msgPasswordRequirements
	case identity.CodeLimitExceeded, identity.CodeTooManyRequests:
		return msgTooManyAttempts
	}
	return MessageFor(err, "Failed to reset password")
}

func confirmSignUpMessage(err error) string {
	switch identity.CodeOf(err) {
	case identity.CodeCodeMismatch:
		return "Invalid confirmation code"
	case identity.CodeExpiredCode:
		return "Confirmation code has expired. Please request a new one"
	case identity.CodeUserNotFound:
		return msgNoAccount
	case identity.CodeLimitExceeded, identity.CodeTooManyRequests:
		return msgTooManyAttempts
	}
	return MessageFor(err, "Failed to confirm email")
}

func resendMessage(err error) string {
	switch identity.CodeOf(err) {
	case identity.CodeUserNotFound:
		return msgNoAccount
	case identity.CodeLimitExceeded, identity.CodeTooManyRequests:
		return msgTooManyAttempts
	}
	return MessageFor(err, "Failed to resend verification code")
}

func newPasswordMessage(err error) string {
	if identity.CodeOf(err) == identity.CodeInvalidPassword {
		if msg := identity.MessageOf(err); msg != "" {
			return msg
		}
		return msgPasswordRequirements
	}
	return loginMessage(err)
}
