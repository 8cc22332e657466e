package utils

import (
	"fmt"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Validator represents a validation function
type Validator[T any] func(T) error

// ValidatorChain allows chaining multiple validators
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add adds a validator to the chain
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs all validators in the chain and stops at the first failure
func (vc *ValidatorChain[T]) Validate(value T) error {
	for _, validator := range vc.validators {
		if err := validator(value); err != nil {
			return err
		}
	}
	return nil
}

// NotEmpty validates that a string is not empty
func NotEmpty(field string) Validator[string] {
	return func(value string) error {
		if value == "" {
			return ValidationError{Field: field, Value: value, Message: "cannot be empty"}
		}
		return nil
	}
}

// IsValidGoIdentifier validates that a string is a valid Go identifier
func IsValidGoIdentifier(field string) Validator[string] {
	return func(value string) error {
		if value == "" {
			return ValidationError{Field: field, Value: value, Message: "cannot be empty"}
		}
		if token.IsKeyword(value) {
			return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("'%s' is a Go keyword", value)}
		}
		if !token.IsIdentifier(value) {
			return ValidationError{Field: field, Value: value, Message: "must be a valid Go identifier"}
		}
		return nil
	}
}

// IsDeclarableIdentifier validates that a string can name a new package-level
// type: a valid identifier that is neither blank nor predeclared.
func IsDeclarableIdentifier(field string) Validator[string] {
	return NewValidatorChain(
		IsValidGoIdentifier(field),
		func(value string) error {
			if value == "_" {
				return ValidationError{Field: field, Value: value, Message: "cannot be the blank identifier"}
			}
			if IsPredeclared(value) {
				return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("'%s' is a predeclared identifier", value)}
			}
			return nil
		},
	).Validate
}

// IsPredeclared reports whether name is declared in the universe scope
func IsPredeclared(name string) bool {
	return types.Universe.Lookup(name) != nil
}

// IsOneOf validates that a value is one of the allowed values
func IsOneOf[T comparable](field string, allowed ...T) Validator[T] {
	return func(value T) error {
		for _, allowedValue := range allowed {
			if value == allowedValue {
				return nil
			}
		}
		return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("must be one of: %v", allowed)}
	}
}

// IsGoFileName validates that a string is a plain .go file name without directories
func IsGoFileName(field string) Validator[string] {
	return NewValidatorChain(
		NotEmpty(field),
		func(value string) error {
			if filepath.Base(value) != value {
				return ValidationError{Field: field, Value: value, Message: "must be a file name, not a path"}
			}
			if !strings.HasSuffix(value, ".go") || strings.HasSuffix(value, "_test.go") {
				return ValidationError{Field: field, Value: value, Message: "must end with .go and not be a test file"}
			}
			return nil
		},
	).Validate
}

// IsInRange validates that an int lies within [min, max]
func IsInRange(field string, min, max int) Validator[int] {
	return func(value int) error {
		if value < min || value > max {
			return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("must be between %d and %d", min, max)}
		}
		return nil
	}
}
