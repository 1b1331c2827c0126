package dto

import "github.com/spec-kit/practice-auth/internal/domain"

// LoginRequest payload.
type LoginRequest struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

// RefreshRequest payload.
type RefreshRequest struct {
	EmployeeID   string `json:"employee_id"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is the token set returned after login or refresh.
type AuthResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// UserResponse is the public view of a staff member.
type UserResponse struct {
	EmployeeID  string `json:"employee_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Store       string `json:"store"`
	Email       string `json:"email,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
}

// NewAuthResponse maps a session onto the wire format.
func NewAuthResponse(s domain.Session) AuthResponse {
	return AuthResponse{Token: s.AccessToken, RefreshToken: s.RefreshToken, ExpiresIn: s.ExpiresIn}
}

// NewUserResponse maps a staff record onto the wire format.
func NewUserResponse(rec domain.StaffRecord) UserResponse {
	return UserResponse{
		EmployeeID:  rec.EmployeeID,
		DisplayName: rec.DisplayName,
		Role:        rec.Role,
		Store:       rec.Store,
		Email:       rec.Email,
		IsAdmin:     rec.IsAdmin,
	}
}
