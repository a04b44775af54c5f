package domain

import "errors"

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrEmptyDescription = errors.New("poll description must not be empty")
	ErrSurfaceExists    = errors.New("surface already registered")
)
