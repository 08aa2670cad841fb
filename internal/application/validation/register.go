package validation

import (
	"strings"

	"github.com/tsuki42/reddit-clone/internal/application/common"
)

// RegisterInput carries the raw registration fields into the rule set.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// RegisterRules is the pluggable validation policy for registration.
// It returns the ordered field errors, or nil when the input is acceptable.
type RegisterRules func(input RegisterInput) []common.FieldError

// DefaultRegisterRules checks the format and length rules applied before any
// storage access.
func DefaultRegisterRules(input RegisterInput) []common.FieldError {
	var errs []common.FieldError

	if !strings.Contains(input.Email, "@") {
		errs = append(errs, common.FieldError{Field: "email", Message: "invalid email"})
	}
	if len(input.Username) <= 2 {
		errs = append(errs, common.FieldError{Field: "username", Message: "length must be greater than 2"})
	}
	if strings.Contains(input.Username, "@") {
		errs = append(errs, common.FieldError{Field: "username", Message: "cannot include an @"})
	}
	if len(input.Password) <= 2 {
		errs = append(errs, common.FieldError{Field: "password", Message: "length must be greater than 2"})
	}

	return errs
}
