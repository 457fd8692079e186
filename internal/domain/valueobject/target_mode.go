package valueobject

import (
	"fmt"
	"nextdynamic/internal/domain/errors/domain"
	"strings"
)

// TargetMode is the build configuration a file is transformed for.
type TargetMode string

// Target mode constants.
const (
	TargetModeDevClient   TargetMode = "dev-client"
	TargetModeServer      TargetMode = "server"
	TargetModePlainBundle TargetMode = "plain-bundle"
)

// validTargetModes contains all valid target modes.
var validTargetModes = map[TargetMode]bool{
	TargetModeDevClient:   true,
	TargetModeServer:      true,
	TargetModePlainBundle: true,
}

// NewTargetMode creates a new TargetMode with validation.
func NewTargetMode(mode string) (TargetMode, error) {
	m := TargetMode(strings.ToLower(strings.TrimSpace(mode)))
	if !validTargetModes[m] {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidTargetMode, mode)
	}
	return m, nil
}

// String returns the string representation of the mode.
func (m TargetMode) String() string {
	return string(m)
}

// RequiresTransition reports whether dynamically imported modules must be
// routed through the next-dynamic transition. Only server builds skip it.
func (m TargetMode) RequiresTransition() bool {
	return m == TargetModeDevClient || m == TargetModePlainBundle
}

// AllTargetModes returns all valid target modes in a stable order.
func AllTargetModes() []TargetMode {
	return []TargetMode{TargetModeDevClient, TargetModeServer, TargetModePlainBundle}
}
