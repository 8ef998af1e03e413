// internal/domain/user/dto.go
package user

import "time"

// LoginRequest is the portal sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful portal sign-in. The credential
// itself travels in the auth-token cookie, not the body.
type LoginResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	User      Info      `json:"user"`
}

// Info is the minimal user view exposed to the UI.
type Info struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// InfoOf projects a User to its API view.
func InfoOf(u *User) Info {
	return Info{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}
