package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

// UserRole is the backend account type.
type UserRole string

const (
	RoleTalent          UserRole = "talent"
	RoleRecruiter       UserRole = "recruiter"
	RoleUniversityStaff UserRole = "university_staff"
	RoleAdmin           UserRole = "admin"
)

// NormalizeRole maps a backend user_type, which may be the display label
// ("University Staff"), to its role. Unknown values yield "".
func NormalizeRole(userType string) UserRole {
	role := UserRole(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(userType)), " ", "_"))
	switch role {
	case RoleTalent, RoleRecruiter, RoleUniversityStaff, RoleAdmin:
		return role
	}
	return ""
}

// LoginRequest holds credentials forwarded to the appointment backend.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the gateway token and session info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	Session     SessionInfo `json:"session"`
}

// SessionInfo describes the authenticated talent's gateway session.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JWTClaims represents the payload of gateway access tokens.
type JWTClaims struct {
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthSession keeps the upstream token pair for one signed-in talent.
type AuthSession struct {
	ID          string
	UserID      string
	Email       string
	Role        UserRole
	Credentials *upstream.Credentials
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Info projects the session for responses.
func (s *AuthSession) Info() SessionInfo {
	return SessionInfo{
		SessionID: s.ID,
		UserID:    s.UserID,
		Email:     s.Email,
		Role:      s.Role,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// RegisterRequest creates a backend account. PasswordConfirm is checked here
// and never forwarded.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,max=150"`
	FirstName       string `json:"first_name" validate:"required,max=150"`
	LastName        string `json:"last_name" validate:"required,max=150"`
	UserType        string `json:"user_type" validate:"required,oneof=talent university_staff"`
	PhoneNumber     string `json:"phone_number" validate:"omitempty,max=20"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// RegisteredUser is the account the backend created.
type RegisteredUser struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"role"`
}
