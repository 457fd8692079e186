// Package messaging defines the request and reply messages exchanged with the
// transform worker.
package messaging

import (
	"encoding/json"
	"fmt"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/service/dynamicimport"
	"nextdynamic/internal/domain/valueobject"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxMessageSize bounds the encoded size of a transform request.
const DefaultMaxMessageSize = 8 * 1024 * 1024

// TransformRequest asks the worker to transform one file.
type TransformRequest struct {
	RequestID     string    `json:"request_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Filename      string    `json:"filename"`
	Source        string    `json:"source"`
	Mode          string    `json:"mode,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// TransformReply carries the result of a TransformRequest. Error is set
// instead of Output when the request failed.
type TransformReply struct {
	RequestID string                         `json:"request_id"`
	Output    string                         `json:"output,omitempty"`
	Changed   bool                           `json:"changed"`
	CallSites []dynamicimport.CallSiteReport `json:"call_sites,omitempty"`
	Error     string                         `json:"error,omitempty"`
	Duration  time.Duration                  `json:"duration"`
}

// NewTransformRequest creates a request with fresh ids.
func NewTransformRequest(filename, source string, mode valueobject.TargetMode) TransformRequest {
	return TransformRequest{
		RequestID:     GenerateRequestID(),
		CorrelationID: GenerateCorrelationID(),
		Filename:      filename,
		Source:        source,
		Mode:          mode.String(),
		Timestamp:     time.Now(),
	}
}

// Validate checks the request fields. An empty Mode means the worker default.
func (r *TransformRequest) Validate() error {
	if strings.TrimSpace(r.RequestID) == "" {
		return fmt.Errorf("%w: request_id is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Filename) == "" {
		return fmt.Errorf("%w: filename is required", domain.ErrInvalidRequest)
	}
	if !valueobject.IsSupportedPath(r.Filename) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, r.Filename)
	}
	if r.Mode != "" {
		if _, err := valueobject.NewTargetMode(r.Mode); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
	}
	return nil
}

// TargetMode resolves the requested mode, falling back to def.
func (r *TransformRequest) TargetMode(def valueobject.TargetMode) (valueobject.TargetMode, error) {
	if r.Mode == "" {
		return def, nil
	}
	return valueobject.NewTargetMode(r.Mode)
}

// ParseTransformRequest decodes and validates a request.
func ParseTransformRequest(data []byte, maxSizeBytes int) (TransformRequest, error) {
	if maxSizeBytes > 0 && len(data) > maxSizeBytes {
		return TransformRequest{}, fmt.Errorf(
			"%w: message size %d exceeds maximum %d", domain.ErrInvalidRequest, len(data), maxSizeBytes)
	}
	var req TransformRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return TransformRequest{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// NewErrorReply creates a reply reporting err.
func NewErrorReply(requestID string, err error) TransformReply {
	return TransformReply{RequestID: requestID, Error: err.Error()}
}

// GenerateRequestID generates a unique request ID.
// The ID format is "req-{timestamp}-{uuid}".
func GenerateRequestID() string {
	return fmt.Sprintf("req-%d-%s", time.Now().UnixNano(), uuid.New().String()[:8])
}

// GenerateCorrelationID generates a unique correlation ID for tracking related messages.
// The ID format is "corr-{timestamp}-{uuid}".
func GenerateCorrelationID() string {
	return fmt.Sprintf("corr-%d-%s", time.Now().UnixNano(), uuid.New().String()[:8])
}
