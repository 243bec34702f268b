package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Status is where a browser session is in the sign-in flow.
type Status string

const (
	StatusAnonymous         Status = "anonymous"
	StatusAuthenticating    Status = "authenticating"
	StatusAuthenticated     Status = "authenticated"
	StatusNeedsConfirmation Status = "needs_confirmation"
	StatusNeedsNewPassword  Status = "needs_new_password"
)

// User is the signed-in identity as the dashboard sees it.
type User struct {
	Username   string            `json:"username"`
	UserID     string            `json:"user_id"`
	Email      string            `json:"email"`
	IsAdmin    bool              `json:"is_admin"`
	Attributes map[string]string `json:"attributes,omitempty"`
	IDToken    string            `json:"-"`
}

// PreferredUsername returns the display name attribute, if set.
func (u *User) PreferredUsername() string {
	if u == nil {
		return ""
	}
	return u.Attributes["preferred_username"]
}

// DisplayName prefers the preferred username, then the email.
func (u *User) DisplayName() string {
	if name := u.PreferredUsername(); name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Username
}

// Clone returns a deep copy safe to hand outside the store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Attributes = make(map[string]string, len(u.Attributes))
	for k, v := range u.Attributes {
		c.Attributes[k] = v
	}
	return &c
}

// DerivePreferredUsername returns the part of an email before '@', or the
// input unchanged when it is not an email.
func DerivePreferredUsername(username string) string {
	if i := strings.Index(username, "@"); i > 0 {
		return username[:i]
	}
	return username
}

// Preference is the per-browser "remember me" record.
type Preference struct {
	ClientID        string    `json:"client_id" gorm:"primaryKey;size:64"`
	RememberedEmail string    `json:"remembered_email"`
	RememberMe      bool      `json:"remember_me" gorm:"not null;default:false"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Preference) TableName() string {
	return "login_preferences"
}

var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceRepository defines the contract for login preference storage
type PreferenceRepository interface {
	Find(ctx context.Context, clientID string) (*Preference, error)
	Save(ctx context.Context, pref *Preference) error
	Delete(ctx context.Context, clientID string) error
}
