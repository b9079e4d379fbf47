package errors

import (
	"errors"
	"fmt"
)

// Common error types for the price tracker client
var (
	// Authentication errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNoRefreshToken   = errors.New("no refresh token")
	ErrRefreshRejected  = errors.New("refresh token rejected")
	ErrSessionChanged   = errors.New("session changed during refresh")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidEmail     = errors.New("invalid email")

	// Credential errors
	ErrPartialCredentials = errors.New("partial credentials")

	// Product errors
	ErrInvalidProduct = errors.New("invalid product")

	// General errors
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrServer     = errors.New("server error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import
func New(text string) error {
	return errors.New(text)
}
