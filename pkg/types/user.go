package types

import "time"

// User represents the application user record. The application operates on
// a single user created out-of-band; the API never deletes it.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nome         string    `json:"nome"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Senha string `json:"senha" validate:"required,min=4"`
}

// ProfileUpdateRequest is the profile update payload
type ProfileUpdateRequest struct {
	Nome  string `json:"nome" validate:"omitempty,max=200"`
	Email string `json:"email" validate:"omitempty,email,max=100"`
}

// PasswordChangeRequest is the password change payload
type PasswordChangeRequest struct {
	SenhaAtual string `json:"senhaAtual" validate:"required"`
	NovaSenha  string `json:"novaSenha" validate:"required,min=4"`
}
