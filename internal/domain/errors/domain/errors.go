// Package domain provides domain-specific error definitions and utilities.
package domain

import "errors"

// Source-related errors.
var (
	ErrEmptySource      = errors.New("source code cannot be empty")
	ErrParseFailed      = errors.New("source could not be parsed")
	ErrUnsupportedFile  = errors.New("unsupported source file type")
	ErrSyntaxErrorsLeft = errors.New("source contains syntax errors")
)

// Transform-related errors.
var (
	ErrInvalidTargetMode  = errors.New("invalid target mode")
	ErrOverlappingEdits   = errors.New("source edits overlap")
	ErrVerificationFailed = errors.New("transformed output failed verification")
	ErrRemoteTransform    = errors.New("remote transform failed")
)

// General domain errors.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidRequest = errors.New("invalid transform request")
)
