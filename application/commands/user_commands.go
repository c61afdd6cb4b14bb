package commands

import (
	"strings"

	"friendship-backend/pkg/utils"
)

// CreateUserCommand represents the command to create a new user
type CreateUserCommand struct {
	UserID string `json:"id" validate:"required"`
	Name   string `json:"name" validate:"required,max=255"`
	Email  string `json:"email" validate:"required,email,max=255"`
}

// Validate validates the command
func (cmd CreateUserCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}

// UpdateUserCommand applies a partial profile change. Nil fields are left as they are.
type UpdateUserCommand struct {
	UserID string  `json:"id" validate:"required"`
	Name   *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

// Validate validates the command
func (cmd UpdateUserCommand) Validate() error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return err
	}

	var fieldErrors []utils.FieldError
	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		fieldErrors = append(fieldErrors, utils.FieldError{Field: "name", Rule: "required", Message: "name cannot be empty"})
	}
	if cmd.Email != nil && strings.TrimSpace(*cmd.Email) == "" {
		fieldErrors = append(fieldErrors, utils.FieldError{Field: "email", Rule: "required", Message: "email cannot be empty"})
	}
	if len(fieldErrors) > 0 {
		return utils.NewFieldValidationError(fieldErrors...)
	}
	return nil
}

// DeleteUserCommand removes a user and all of its friendships
type DeleteUserCommand struct {
	UserID string `json:"id" validate:"required"`
}

// Validate validates the command
func (cmd DeleteUserCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}
