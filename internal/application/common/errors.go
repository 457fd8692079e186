package common

import "fmt"

// ServiceError represents a service-level error with context
type ServiceError struct {
	Operation string
	Path      string
	Cause     error
}

// Error implements the error interface
func (e ServiceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Cause)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error
func (e ServiceError) Unwrap() error {
	return e.Cause
}

// WrapServiceError wraps an error with service operation context
func WrapServiceError(operation string, err error) error {
	return WrapFileError(operation, "", err)
}

// WrapFileError wraps an error with the operation and the file it concerns.
func WrapFileError(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return ServiceError{
		Operation: operation,
		Path:      path,
		Cause:     err,
	}
}

// Common error operations for consistent messaging
const (
	OpDetectDialect   = "detect dialect of"
	OpParseSource     = "parse"
	OpTransformSource = "transform"
	OpVerifyOutput    = "verify output of"
	OpCreatePass      = "create transform"
	OpDecodeRequest   = "decode transform request"
	OpEncodeReply     = "encode transform reply"
)
