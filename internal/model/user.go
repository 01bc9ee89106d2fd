package model

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents the identity the gateway authenticated
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginRequest carries the credentials for a login attempt
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterRequest is used to sign up a new account. ConfirmPassword is
// checked locally and never forwarded to the gateway.
type RegisterRequest struct {
	Name            string `json:"name" form:"name" binding:"required"`
	Email           string `json:"email" form:"email" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" binding:"required"`
	Role            string `json:"role" form:"role" binding:"omitempty,oneof=user admin"`
}

// ProfileUpdateRequest allows partial updates of the current user
type ProfileUpdateRequest struct {
	Name  *string `json:"name,omitempty" form:"name"`
	Email *string `json:"email,omitempty" form:"email"`
}
