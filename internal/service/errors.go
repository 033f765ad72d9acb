package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNotPublished       = errors.New("form is not published")
	ErrUnauthorizedOwner  = errors.New("form belongs to another user")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrFileTooLarge       = errors.New("file too large")
)
