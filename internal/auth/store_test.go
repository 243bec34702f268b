package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/supply-dashboard/internal/auth/domain"
	"github.com/tair/supply-dashboard/internal/auth/repository"
	"github.com/tair/supply-dashboard/internal/identity"
	"github.com/tair/supply-dashboard/internal/notify"
)

type fakeProvider struct {
	signIn       func(username, password string) (*identity.SignInResult, error)
	completeNew  func(session, newPassword string, attrs map[string]string) (*identity.SignInResult, error)
	refresh      func(refreshToken string) (*identity.Tokens, error)
	signOutErr   error
	getUser      func(accessToken string) (*identity.UserInfo, error)
	updateErr    error
	codeFlowErr  error
	signedOut    []string
	updatedAttrs []map[string]string
	codeCalls    []string
}

func (f *fakeProvider) SignIn(_ context.Context, username, password string) (*identity.SignInResult, error) {
	return f.signIn(username, password)
}

func (f *fakeProvider) CompleteNewPassword(_ context.Context, _, session, newPassword string, attrs map[string]string) (*identity.SignInResult, error) {
	return f.completeNew(session, newPassword, attrs)
}

func (f *fakeProvider) Refresh(_ context.Context, _, refreshToken string) (*identity.Tokens, error) {
	return f.refresh(refreshToken)
}

func (f *fakeProvider) SignOut(_ context.Context, accessToken string) error {
	f.signedOut = append(f.signedOut, accessToken)
	return f.signOutErr
}

func (f *fakeProvider) ConfirmSignUp(_ context.Context, username, code string) error {
	f.codeCalls = append(f.codeCalls, "confirm:"+username+":"+code)
	return f.codeFlowErr
}

func (f *fakeProvider) ResendSignUpCode(_ context.Context, username string) error {
	f.codeCalls = append(f.codeCalls, "resend:"+username)
	return f.codeFlowErr
}

func (f *fakeProvider) ResetPassword(_ context.Context, username string) error {
	f.codeCalls = append(f.codeCalls, "reset:"+username)
	return f.codeFlowErr
}

func (f *fakeProvider) ConfirmResetPassword(_ context.Context, username, code, _ string) error {
	f.codeCalls = append(f.codeCalls, "confirm-reset:"+username+":"+code)
	return f.codeFlowErr
}

func (f *fakeProvider) GetUser(_ context.Context, accessToken string) (*identity.UserInfo, error) {
	return f.getUser(accessToken)
}

func (f *fakeProvider) UpdateUserAttributes(_ context.Context, _ string, attrs map[string]string) error {
	f.updatedAttrs = append(f.updatedAttrs, attrs)
	return f.updateErr
}

func idToken(t *testing.T, groups ...string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":            "user-1",
		"email":          "sam@example.com",
		"cognito:groups": groups,
		"exp":            time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func signedInProvider(t *testing.T, groups ...string) *fakeProvider {
	token := idToken(t, groups...)
	return &fakeProvider{
		signIn: func(_, _ string) (*identity.SignInResult, error) {
			return &identity.SignInResult{
				IsSignedIn: true,
				NextStep:   identity.StepDone,
				Tokens:     &identity.Tokens{AccessToken: "access", IDToken: token, RefreshToken: "refresh"},
			}, nil
		},
		getUser: func(string) (*identity.UserInfo, error) {
			return &identity.UserInfo{
				Username:   "user-1",
				Attributes: map[string]string{"sub": "user-1", "email": "sam@example.com"},
			}, nil
		},
	}
}

func newTestStore(p identity.Provider, prefs domain.PreferenceRepository) (*Store, *notify.Flash) {
	flash := notify.NewFlash()
	return NewStore(p, prefs, flash, "client-1", nil), flash
}

func TestLoginSuccess(t *testing.T) {
	p := signedInProvider(t, "ADMINS")
	prefs := repository.NewMemoryPreferenceRepository()
	s, flash := newTestStore(p, prefs)

	res, err := s.Login(context.Background(), " sam@example.com ", "pw", true)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess)
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.IsAdmin())
	assert.NotEmpty(t, s.Token())

	user := s.User()
	require.NotNil(t, user)
	assert.Equal(t, "user-1", user.UserID)
	assert.Equal(t, "sam", user.PreferredUsername())
	require.Len(t, p.updatedAttrs, 1)
	assert.Equal(t, "sam", p.updatedAttrs[0]["preferred_username"])

	pref, err := prefs.Find(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", pref.RememberedEmail)
	assert.True(t, pref.RememberMe)

	notices := flash.Drain()
	require.NotEmpty(t, notices)
	assert.Equal(t, "Login successful", notices[len(notices)-1].Message)
}

func TestLoginWithoutRememberMeClearsPreference(t *testing.T) {
	prefs := repository.NewMemoryPreferenceRepository()
	require.NoError(t, prefs.Save(context.Background(), &domain.Preference{ClientID: "client-1", RememberedEmail: "old@example.com", RememberMe: true}))
	s, _ := newTestStore(signedInProvider(t), prefs)

	_, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.NoError(t, err)

	_, err = prefs.Find(context.Background(), "client-1")
	assert.ErrorIs(t, err, domain.ErrPreferenceNotFound)
	email, remember := s.RememberedEmail()
	assert.Empty(t, email)
	assert.False(t, remember)
	assert.False(t, s.IsAdmin())
}

func TestLoginRemembersEmailEvenWhenRejected(t *testing.T) {
	p := &fakeProvider{signIn: func(_, _ string) (*identity.SignInResult, error) {
		return nil, &identity.Error{Code: identity.CodeNotAuthorized, Message: "bad"}
	}}
	prefs := repository.NewMemoryPreferenceRepository()
	s, _ := newTestStore(p, prefs)

	_, err := s.Login(context.Background(), "sam@example.com", "wrong", true)
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())

	email, remember := s.RememberedEmail()
	assert.Equal(t, "sam@example.com", email)
	assert.True(t, remember)

	pref, err := prefs.Find(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", pref.RememberedEmail)
}

func TestLoginErrorMessages(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{identity.CodeNotAuthorized, "Incorrect username or password"},
		{identity.CodeUserNotFound, "User does not exist"},
		{identity.CodeLimitExceeded, "Too many attempts. Please try again later"},
		{"InternalErrorException", "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			p := &fakeProvider{signIn: func(_, _ string) (*identity.SignInResult, error) {
				return nil, &identity.Error{Code: tc.code, Message: "boom"}
			}}
			s, flash := newTestStore(p, nil)

			_, err := s.Login(context.Background(), "sam@example.com", "pw", false)
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
			assert.Equal(t, tc.want, s.State().Error)
			assert.Equal(t, domain.StatusAnonymous, s.State().Status)
			assert.False(t, s.State().IsLoading)
			assert.Equal(t, notify.LevelError, flash.Drain()[0].Level)
		})
	}
}

func TestLoginTransportErrorUsesFallback(t *testing.T) {
	p := &fakeProvider{signIn: func(_, _ string) (*identity.SignInResult, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	s, _ := newTestStore(p, nil)

	_, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.Error(t, err)
	assert.Equal(t, "An error occurred during login", err.Error())
}

func TestLoginRequiresConfirmation(t *testing.T) {
	p := &fakeProvider{signIn: func(_, _ string) (*identity.SignInResult, error) {
		return &identity.SignInResult{NextStep: identity.StepConfirmSignUp}, nil
	}}
	s, flash := newTestStore(p, nil)

	res, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.NoError(t, err)
	assert.True(t, res.RequiresConfirmation)
	assert.False(t, res.IsSuccess)
	assert.Equal(t, domain.StatusNeedsConfirmation, s.State().Status)
	assert.Equal(t, "sam@example.com", s.State().PendingUsername)
	assert.Equal(t, "Please confirm your email account", flash.Drain()[0].Message)
}

func TestLoginUnconfirmedErrorRequiresConfirmation(t *testing.T) {
	p := &fakeProvider{signIn: func(_, _ string) (*identity.SignInResult, error) {
		return nil, &identity.Error{Code: identity.CodeUserNotConfirmed}
	}}
	s, _ := newTestStore(p, nil)

	res, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.NoError(t, err)
	assert.True(t, res.RequiresConfirmation)
}

func TestNewPasswordFlow(t *testing.T) {
	token := idToken(t)
	p := signedInProvider(t)
	p.signIn = func(_, _ string) (*identity.SignInResult, error) {
		return &identity.SignInResult{NextStep: identity.StepNewPasswordRequired, Session: "sess"}, nil
	}
	var gotAttrs map[string]string
	p.completeNew = func(session, newPassword string, attrs map[string]string) (*identity.SignInResult, error) {
		assert.Equal(t, "sess", session)
		assert.Equal(t, "NewPass1!", newPassword)
		gotAttrs = attrs
		return &identity.SignInResult{IsSignedIn: true, NextStep: identity.StepDone, Tokens: &identity.Tokens{AccessToken: "a", IDToken: token}}, nil
	}
	s, flash := newTestStore(p, nil)

	res, err := s.Login(context.Background(), "sam@example.com", "temp", false)
	require.NoError(t, err)
	assert.True(t, res.RequiresNewPassword)
	assert.Equal(t, domain.StatusNeedsNewPassword, s.State().Status)

	res, err = s.SetNewPasswordOnFirstLogin(context.Background(), "sam@example.com", "temp", "NewPass1!")
	require.NoError(t, err)
	assert.True(t, res.IsSuccess)
	assert.Equal(t, "sam", gotAttrs["preferred_username"])
	assert.True(t, s.IsAuthenticated())

	notices := flash.Drain()
	assert.Equal(t, "Password updated successfully", notices[len(notices)-1].Message)
}

func TestNewPasswordRejected(t *testing.T) {
	p := &fakeProvider{
		signIn: func(_, _ string) (*identity.SignInResult, error) {
			return &identity.SignInResult{NextStep: identity.StepNewPasswordRequired, Session: "sess"}, nil
		},
		completeNew: func(string, string, map[string]string) (*identity.SignInResult, error) {
			return nil, &identity.Error{Code: identity.CodeInvalidPassword}
		},
	}
	s, _ := newTestStore(p, nil)

	_, err := s.SetNewPasswordOnFirstLogin(context.Background(), "sam@example.com", "temp", "short")
	require.Error(t, err)
	assert.Equal(t, "Password does not meet requirements", err.Error())
	assert.Equal(t, domain.StatusNeedsNewPassword, s.State().Status)
}

func TestLoginFailsWhenUserCannotBeLoaded(t *testing.T) {
	p := signedInProvider(t)
	p.getUser = func(string) (*identity.UserInfo, error) {
		return nil, &identity.Error{Code: identity.CodeNotAuthorized, Message: "Access Token has been revoked"}
	}
	s, _ := newTestStore(p, nil)

	_, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.Error(t, err)
	assert.Equal(t, "Access Token has been revoked", err.Error())
	assert.False(t, s.HasSession())
	assert.Empty(t, s.Token())
}

func TestLogoutClearsStateEvenWhenRemoteFails(t *testing.T) {
	p := signedInProvider(t)
	p.signOutErr = errors.New("network down")
	s, flash := newTestStore(p, nil)
	_, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.NoError(t, err)
	flash.Drain()

	s.Logout(context.Background())
	assert.Equal(t, []string{"access"}, p.signedOut)
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())
	assert.Equal(t, "Logged out successfully", flash.Drain()[0].Message)
}

func TestFetchCurrentUserWithoutSession(t *testing.T) {
	s, _ := newTestStore(&fakeProvider{}, nil)

	_, err := s.FetchCurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestFetchCurrentUserRefreshesExpiredTokens(t *testing.T) {
	p := signedInProvider(t)
	fresh := idToken(t)
	var refreshed string
	p.refresh = func(refreshToken string) (*identity.Tokens, error) {
		refreshed = refreshToken
		return &identity.Tokens{AccessToken: "access-2", IDToken: fresh, RefreshToken: refreshToken}, nil
	}
	s, _ := newTestStore(p, nil)
	_, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	s.mu.Lock()
	s.tokens.ExpiresAt = time.Now()
	s.mu.Unlock()

	user, err := s.FetchCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshed)
	assert.Equal(t, fresh, user.IDToken)
	assert.Equal(t, fresh, s.Token())
}

func TestFetchCurrentUserClearsSessionWhenRefreshFails(t *testing.T) {
	p := signedInProvider(t)
	p.refresh = func(string) (*identity.Tokens, error) {
		return nil, &identity.Error{Code: identity.CodeNotAuthorized}
	}
	s, _ := newTestStore(p, nil)
	_, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.NoError(t, err)

	s.mu.Lock()
	s.tokens.ExpiresAt = time.Now().Add(-time.Minute)
	s.mu.Unlock()

	_, err = s.FetchCurrentUser(context.Background())
	require.Error(t, err)
	assert.False(t, s.HasSession())
	assert.Equal(t, domain.StatusAnonymous, s.State().Status)
}

func TestPreferredUsernameKeptWhenPresent(t *testing.T) {
	p := signedInProvider(t)
	p.getUser = func(string) (*identity.UserInfo, error) {
		return &identity.UserInfo{Username: "user-1", Attributes: map[string]string{"email": "sam@example.com", "preferred_username": "sammy"}}, nil
	}
	s, _ := newTestStore(p, nil)

	_, err := s.Login(context.Background(), "sam@example.com", "pw", false)
	require.NoError(t, err)
	assert.Empty(t, p.updatedAttrs)
	assert.Equal(t, "sammy", s.User().DisplayName())
}

func TestCodeFlows(t *testing.T) {
	p := &fakeProvider{}
	s, flash := newTestStore(p, nil)
	ctx := context.Background()

	require.NoError(t, s.RequestPasswordReset(ctx, "sam@example.com"))
	require.NoError(t, s.ConfirmPasswordReset(ctx, "sam@example.com", " 123456 ", "NewPass1!"))
	require.NoError(t, s.ConfirmSignUp(ctx, "sam@example.com", "111111"))
	require.NoError(t, s.ResendConfirmationCode(ctx, "sam@example.com"))

	assert.Equal(t, []string{
		"reset:sam@example.com",
		"confirm-reset:sam@example.com:123456",
		"confirm:sam@example.com:111111",
		"resend:sam@example.com",
	}, p.codeCalls)

	var messages []string
	for _, n := range flash.Drain() {
		messages = append(messages, n.Message)
	}
	assert.Equal(t, []string{
		"Password reset code sent to your email",
		"Password reset successful",
		"Email confirmed successfully",
		"Verification code resent to your email",
	}, messages)
}

func TestCodeFlowErrorMessages(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{}
	s, _ := newTestStore(p, nil)

	p.codeFlowErr = &identity.Error{Code: identity.CodeUserNotFound}
	assert.EqualError(t, s.RequestPasswordReset(ctx, "x@example.com"), "No account found with this email address")
	assert.EqualError(t, s.ResendConfirmationCode(ctx, "x@example.com"), "No account found with this email address")
	assert.EqualError(t, s.ConfirmSignUp(ctx, "x@example.com", "1"), "No account found with this email address")

	p.codeFlowErr = &identity.Error{Code: identity.CodeCodeMismatch}
	assert.EqualError(t, s.ConfirmPasswordReset(ctx, "x@example.com", "1", "pw"), "Invalid verification code")
	assert.EqualError(t, s.ConfirmSignUp(ctx, "x@example.com", "1"), "Invalid confirmation code")

	p.codeFlowErr = &identity.Error{Code: identity.CodeExpiredCode}
	assert.EqualError(t, s.ConfirmPasswordReset(ctx, "x@example.com", "1", "pw"), "Verification code has expired. Please request a new one")
	assert.EqualError(t, s.ConfirmSignUp(ctx, "x@example.com", "1"), "Confirmation code has expired. Please request a new one")

	p.codeFlowErr = &identity.Error{Code: identity.CodeInvalidPassword, Message: "Password must have symbols"}
	assert.EqualError(t, s.ConfirmPasswordReset(ctx, "x@example.com", "1", "pw"), "Password must have symbols")

	p.codeFlowErr = &identity.Error{Code: identity.CodeLimitExceeded}
	assert.EqualError(t, s.RequestPasswordReset(ctx, "x@example.com"), "Too many attempts. Please try again later")

	p.codeFlowErr = errors.New("timeout")
	assert.EqualError(t, s.RequestPasswordReset(ctx, "x@example.com"), "Failed to send reset code")
	assert.EqualError(t, s.ConfirmPasswordReset(ctx, "x@example.com", "1", "pw"), "Failed to reset password")
	assert.EqualError(t, s.ConfirmSignUp(ctx, "x@example.com", "1"), "Failed to confirm email")
	assert.EqualError(t, s.ResendConfirmationCode(ctx, "x@example.com"), "Failed to resend verification code")
}

func TestUpdateProfile(t *testing.T) {
	p := signedInProvider(t)
	s, flash := newTestStore(p, nil)
	ctx := context.Background()

	_, err := s.UpdateProfile(ctx, "sammy")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = s.Login(ctx, "sam@example.com", "pw", false)
	require.NoError(t, err)
	flash.Drain()

	user, err := s.UpdateProfile(ctx, "  sammy ")
	require.NoError(t, err)
	assert.Equal(t, "sammy", user.PreferredUsername())
	assert.Equal(t, "sammy", s.User().PreferredUsername())
	assert.Equal(t, "Profile updated successfully", flash.Drain()[0].Message)

	_, err = s.UpdateProfile(ctx, " ")
	assert.EqualError(t, err, "Preferred username is required")
}

func TestLoadPreferences(t *testing.T) {
	prefs := repository.NewMemoryPreferenceRepository()
	require.NoError(t, prefs.Save(context.Background(), &domain.Preference{ClientID: "client-1", RememberedEmail: "sam@example.com", RememberMe: true}))
	s, _ := newTestStore(&fakeProvider{}, prefs)

	require.NoError(t, s.LoadPreferences(context.Background()))
	email, remember := s.RememberedEmail()
	assert.Equal(t, "sam@example.com", email)
	assert.True(t, remember)

	other := NewStore(&fakeProvider{}, prefs, nil, "client-2", nil)
	require.NoError(t, other.LoadPreferences(context.Background()))
	email, _ = other.RememberedEmail()
	assert.Empty(t, email)
}

func TestCheckPasswordsMatch(t *testing.T) {
	assert.NoError(t, CheckPasswordsMatch("a", "a"))
	err := CheckPasswordsMatch("a", "b")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Equal(t, "Passwords do not match", MessageFor(err, "x"))
}
