package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/pkg/logger"
)

const defaultRegion = "us-east-1"

// CognitoConfig identifies the user pool app client.
type CognitoConfig struct {
	Region       string
	Endpoint     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

func (c CognitoConfig) region() string {
	if c.Region == "" {
		return defaultRegion
	}
	return c.Region
}

func (c CognitoConfig) endpoint() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/") + "/"
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/", c.region())
}

// CognitoClient is a Provider backed by a Cognito user pool app client.
// Every operation it uses is public, so requests go out unsigned.
type CognitoClient struct {
	cfg     CognitoConfig
	api     *cip.Client
	metrics *metrics.Registry
	now     func() time.Time
}

// NewCognitoClient creates a client for the configured user pool app client
func NewCognitoClient(cfg CognitoConfig, m *metrics.Registry) *CognitoClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := cip.Options{
		Region:      cfg.region(),
		Credentials: aws.AnonymousCredentials{},
		Retryer:     aws.NopRetryer{},
		HTTPClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(strings.TrimRight(cfg.Endpoint, "/"))
	}

	return &CognitoClient{
		cfg:     cfg,
		api:     cip.New(opts),
		metrics: m,
		now:     time.Now,
	}
}

// Endpoint returns the URL requests are sent to.
func (c *CognitoClient) Endpoint() string {
	return c.cfg.endpoint()
}

func (c *CognitoClient) SignIn(ctx context.Context, username, password string) (*SignInResult, error) {
	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	c.addSecretHash(params, username)

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(c.cfg.ClientID),
		AuthParameters: params,
	})
	err = c.observe(ctx, "InitiateAuth", err)
	if err != nil {
		var unconfirmed *types.UserNotConfirmedException
		if errors.As(err, &unconfirmed) {
			return &SignInResult{NextStep: StepConfirmSignUp}, nil
		}
		return nil, err
	}
	return c.signInResult(out.AuthenticationResult, out.ChallengeName, out.Session), nil
}

func (c *CognitoClient) CompleteNewPassword(ctx context.Context, username, session, newPassword string, attributes map[string]string) (*SignInResult, error) {
	responses := map[string]string{
		"USERNAME":     username,
		"NEW_PASSWORD": newPassword,
	}
	for name, value := range attributes {
		responses["userAttributes."+name] = value
	}
	c.addSecretHash(responses, username)

	out, err := c.api.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
		ChallengeName:      types.ChallengeNameTypeNewPasswordRequired,
		ClientId:           aws.String(c.cfg.ClientID),
		Session:            aws.String(session),
		ChallengeResponses: responses,
	})
	if err := c.observe(ctx, "RespondToAuthChallenge", err); err != nil {
		return nil, err
	}
	return c.signInResult(out.AuthenticationResult, out.ChallengeName, out.Session), nil
}

func (c *CognitoClient) Refresh(ctx context.Context, username, refreshToken string) (*Tokens, error) {
	params := map[string]string{"REFRESH_TOKEN": refreshToken}
	c.addSecretHash(params, username)

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
		ClientId:       aws.String(c.cfg.ClientID),
		AuthParameters: params,
	})
	if err := c.observe(ctx, "InitiateAuth", err); err != nil {
		return nil, err
	}
	if out.AuthenticationResult == nil {
		return nil, &Error{Code: CodeNotAuthorized, Message: "refresh returned no tokens"}
	}

	tokens := c.tokens(out.AuthenticationResult)
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

func (c *CognitoClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)})
	return c.observe(ctx, "GlobalSignOut", err)
}

func (c *CognitoClient) ConfirmSignUp(ctx context.Context, username, code string) error {
	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.cfg.ClientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		SecretHash:       c.secretHashField(username),
	})
	return c.observe(ctx, "ConfirmSignUp", err)
}

func (c *CognitoClient) ResendSignUpCode(ctx context.Context, username string) error {
	_, err := c.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(c.cfg.ClientID),
		Username:   aws.String(username),
		SecretHash: c.secretHashField(username),
	})
	return c.observe(ctx, "ResendConfirmationCode", err)
}

func (c *CognitoClient) ResetPassword(ctx context.Context, username string) error {
	_, err := c.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(c.cfg.ClientID),
		Username:   aws.String(username),
		SecretHash: c.secretHashField(username),
	})
	return c.observe(ctx, "ForgotPassword", err)
}

func (c *CognitoClient) ConfirmResetPassword(ctx context.Context, username, code, newPassword string) error {
	_, err := c.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.cfg.ClientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
		SecretHash:       c.secretHashField(username),
	})
	return c.observe(ctx, "ConfirmForgotPassword", err)
}

func (c *CognitoClient) GetUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	out, err := c.api.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err := c.observe(ctx, "GetUser", err); err != nil {
		return nil, err
	}

	info := &UserInfo{Username: aws.ToString(out.Username), Attributes: make(map[string]string, len(out.UserAttributes))}
	for _, a := range out.UserAttributes {
		info.Attributes[aws.ToString(a.Name)] = aws.ToString(a.Value)
	}
	return info, nil
}

func (c *CognitoClient) UpdateUserAttributes(ctx context.Context, accessToken string, attributes map[string]string) error {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]types.AttributeType, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, types.AttributeType{Name: aws.String(name), Value: aws.String(attributes[name])})
	}

	_, err := c.api.UpdateUserAttributes(ctx, &cip.UpdateUserAttributesInput{
		AccessToken:    aws.String(accessToken),
		UserAttributes: attrs,
	})
	return c.observe(ctx, "UpdateUserAttributes", err)
}

func (c *CognitoClient) signInResult(auth *types.AuthenticationResultType, challenge types.ChallengeNameType, session *string) *SignInResult {
	if auth != nil {
		return &SignInResult{
			IsSignedIn: true,
			NextStep:   StepDone,
			Tokens:     c.tokens(auth),
		}
	}
	if challenge == types.ChallengeNameTypeNewPasswordRequired {
		return &SignInResult{NextStep: StepNewPasswordRequired, Session: aws.ToString(session)}
	}
	return &SignInResult{NextStep: SignInStep(challenge), Session: aws.ToString(session)}
}

func (c *CognitoClient) tokens(r *types.AuthenticationResultType) *Tokens {
	t := &Tokens{
		AccessToken:  aws.ToString(r.AccessToken),
		IDToken:      aws.ToString(r.IdToken),
		RefreshToken: aws.ToString(r.RefreshToken),
	}
	if r.ExpiresIn > 0 {
		t.ExpiresAt = c.now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return t
}

// secretHash is required by app clients that have a secret.
func (c *CognitoClient) secretHash(username string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.ClientSecret))
	mac.Write([]byte(username + c.cfg.ClientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *CognitoClient) addSecretHash(params map[string]string, username string) {
	if c.cfg.ClientSecret != "" {
		params["SECRET_HASH"] = c.secretHash(username)
	}
}

func (c *CognitoClient) secretHashField(username string) *string {
	if c.cfg.ClientSecret == "" {
		return nil
	}
	return aws.String(c.secretHash(username))
}

// observe records the call and converts SDK failures into *Error.
func (c *CognitoClient) observe(ctx context.Context, operation string, err error) error {
	err = toError(operation, err)
	c.metrics.IdentityCall(operation, err)

	var idErr *Error
	if errors.As(err, &idErr) {
		logger.Debug(ctx).
			Str("operation", operation).
			Str("code", idErr.Code).
			Int("status", idErr.StatusCode).
			Msg("Identity provider rejected request")
	}
	return err
}

// toError maps a service exception to *Error keeping the typed exception
// reachable through errors.As. Transport failures are only wrapped.
func toError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", operation, err)
	}

	idErr := &Error{
		Code:    normalizeCode(apiErr.ErrorCode()),
		Message: apiErr.ErrorMessage(),
		Err:     err,
	}
	if idErr.Code == "" {
		idErr.Code = "UnknownError"
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		idErr.StatusCode = respErr.HTTPStatusCode()
	}
	return idErr
}
