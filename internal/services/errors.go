package services

import (
	"errors"
	"fmt"
)

// ValidationError represents a validation failure with suggestions
type ValidationError struct {
	Field       string   `json:"field"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("%s: %s. Suggestions: %v", e.Field, e.Message, e.Suggestions)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, suggestions []string) *ValidationError {
	return &ValidationError{
		Field:       field,
		Message:     message,
		Suggestions: suggestions,
	}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// ConflictError represents a resource conflict (e.g., already exists)
type ConflictError struct {
	Resource    string   `json:"resource"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Message:  message,
	}
}

// IsConflictError checks if an error is a ConflictError
func IsConflictError(err error) (*ConflictError, bool) {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr, true
	}
	return nil, false
}

// AuthError represents a missing or invalid caller identity
type AuthError struct {
	Message string `json:"message"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Message)
}

// NewAuthError creates a new auth error
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// IsAuthError checks if an error is an AuthError
func IsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// NotFoundError represents an unknown workspace/member/invitation id
type NotFoundError struct {
	Resource string `json:"resource"`
	Message  string `json:"message"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Message)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// IsNotFoundError checks if an error is a NotFoundError
func IsNotFoundError(err error) (*NotFoundError, bool) {
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr, true
	}
	return nil, false
}

// PermissionError represents a caller lacking the required role for an action
type PermissionError struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for %s: %s", e.Action, e.Message)
}

// NewPermissionError creates a new permission error
func NewPermissionError(action, message string) *PermissionError {
	return &PermissionError{
		Action:  action,
		Message: message,
	}
}

// IsPermissionError checks if an error is a PermissionError
func IsPermissionError(err error) (*PermissionError, bool) {
	var permissionErr *PermissionError
	if errors.As(err, &permissionErr) {
		return permissionErr, true
	}
	return nil, false
}

// ErrInvitationInvalid is the uniform rejection for unknown, expired, and
// already-used invitation tokens. The message is deliberately identical for
// all three cases so callers cannot probe tokens.
var ErrInvitationInvalid = errors.New("this invitation is no longer valid")

// ErrLastOwner blocks removing or demoting the only active owner of a workspace
var ErrLastOwner = errors.New("workspace must retain at least one owner")
