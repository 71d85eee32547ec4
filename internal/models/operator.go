package models

import "time"

// Operator is a route operator account. One operator drives one vehicle and
// runs at most one route at a time.
type Operator struct {
	ID             string    `json:"id" db:"id"` // UUID string from DB
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	AuthProvider   string    `json:"auth_provider" db:"auth_provider"`
	AuthProviderID string    `json:"-" db:"auth_provider_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	Operator    *Operator `json:"operator"`
}
