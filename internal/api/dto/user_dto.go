package dto

import "time"

// UserResponse is the public view of a colleague.
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// UpdateProfileRequest payload for PUT /users/me.
type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
}
