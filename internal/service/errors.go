package service

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrOutputLocked = errors.New("output file is locked, close it and retry")
)
