// Package common defines shared constants and sentinel errors used across
// the filevault server layers. Callers should use errors.Is / errors.As to
// match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrDuplicateName  = errors.New("a folder with this name already exists")
	ErrDuplicateEmail = errors.New("an account with this email already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrTimeout        = errors.New("operation timed out")

	// Validation errors. Concrete failures are reported as *ValidationError.
	ErrorValidation = errors.New("validation error")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials, please check your email and password")
	ErrInvalidOTP         = errors.New("invalid verification code")
	ErrNoOTPRecord        = errors.New("no verification code found for this email")
	ErrOTPNotVerified     = errors.New("verification code has not been confirmed for this email")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Blob and upload errors.
	ErrNoFile      = errors.New("no file uploaded")
	ErrBlobDelete  = errors.New("error deleting file from storage")
	ErrBlobMissing = errors.New("file does not exist on server")
)

// ValidationError reports user-correctable input. It matches ErrorValidation
// under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrorValidation }

// CascadeError is returned when a folder delete could not remove every file
// that references the folder. The folder row is kept; Remaining lists the
// file ids still present so the caller can retry.
type CascadeError struct {
	FolderID  string
	Remaining []string
	Err       error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("folder %s not deleted, %d file(s) remain [%s]: %v",
		e.FolderID, len(e.Remaining), strings.Join(e.Remaining, ", "), e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// Retryable is always true: a repeated delete resumes from the files that are left.
func (e *CascadeError) Retryable() bool { return true }
