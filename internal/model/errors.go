package model

import "errors"

var (
	// Authentication
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrTokenRevoked       = errors.New("token revoked")

	// Authorization
	ErrForbidden        = errors.New("forbidden")
	ErrCannotDeleteSelf = errors.New("cannot delete own account")

	// Records
	ErrUserNotFound     = errors.New("user not found")
	ErrGraduateNotFound = errors.New("graduate not found")
	ErrDiplomaNotFound  = errors.New("diploma not found")
	ErrFacultyNotFound  = errors.New("faculty not found")
	ErrAlreadyExists    = errors.New("already exists")

	// Generic errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("configuration error")
)
