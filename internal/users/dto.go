package users

// CreateUserRequest registers a new account in the actor's company.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=255"`
	Role     string `json:"role" validate:"required,oneof=admin manager staff"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateUserRequest edits an account. Nil fields stay unchanged.
type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Role   *string `json:"role,omitempty" validate:"omitempty,oneof=admin manager staff"`
	Active *bool   `json:"active,omitempty"`
}

// ChangePasswordRequest replaces an account password.
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}
