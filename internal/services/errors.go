package services

import "fmt"

// Custom errors
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ProfileError is a failed load or save of a profile document. Op names the
// operation ("load", "save", "upload").
type ProfileError struct {
	Op  string
	Err error
}

func (e *ProfileError) Error() string { return fmt.Sprintf("profile %s failed: %v", e.Op, e.Err) }

func (e *ProfileError) Unwrap() error { return e.Err }
