package model

import "time"

// Admin roles. Role is descriptive only; every active credential may open the
// dashboard.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// AdminCredential is a stored operator account that may open the dashboard.
// Passwords are stored as bcrypt hashes.
type AdminCredential struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	FullName     string     `json:"full_name" db:"full_name"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// AdminSession is the client-held proof that a login succeeded. It mirrors
// the public fields of the credential it was built from.
type AdminSession struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	IssuedAt  time.Time  `json:"issued_at"`
}

// NewAdminSession builds a session for cred. LastLogin is set to now because
// the login that creates the session is the most recent one.
func NewAdminSession(cred *AdminCredential, now time.Time) *AdminSession {
	login := now
	return &AdminSession{
		ID:        cred.ID,
		Email:     cred.Email,
		FullName:  cred.FullName,
		Role:      cred.Role,
		IsActive:  cred.IsActive,
		LastLogin: &login,
		IssuedAt:  now,
	}
}

// DisplayName returns the name shown in the dashboard header.
func (s *AdminSession) DisplayName() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Email
}
