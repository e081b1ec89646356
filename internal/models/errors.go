package models

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrPermDenied     = errors.New("not enough permissions to execute this action")
	ErrTooManyTags    = errors.New("maximum 5 tags are allowed")
	ErrUsernameTaken  = errors.New("user already exists")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrEmptyContent   = errors.New("content must not be empty")
)
