package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps go-playground/validator for request DTOs.
type RequestValidator struct {
	validate *validator.Validate
}

// Validate runs struct validation and returns the first error.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

var (
	validatorOnce     sync.Once
	validatorInstance *RequestValidator
)

// GetValidator returns the shared validator instance.
func GetValidator() *RequestValidator {
	validatorOnce.Do(func() {
		validatorInstance = &RequestValidator{validate: validator.New()}
	})
	return validatorInstance
}
