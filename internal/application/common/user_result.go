package common

import (
	"github.com/tsuki42/reddit-clone/internal/domain/entities"
)

// FieldError localizes a validation or business-rule failure to one input
// field. It is the only error shape the client renders inline.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UserResult is the envelope returned by every mutation that can fail with
// field errors. The fields are unexported so a result is structurally either
// a user or a non-empty error list, never both.
type UserResult struct {
	user *entities.User
	errs []FieldError
}

func OK(user *entities.User) *UserResult {
	return &UserResult{user: user}
}

func Fail(errs ...FieldError) *UserResult {
	return &UserResult{errs: errs}
}

// User returns the user on success, nil on failure.
func (r *UserResult) User() *entities.User {
	return r.user
}

// Errors returns the ordered field errors, empty on success.
func (r *UserResult) Errors() []FieldError {
	return r.errs
}
