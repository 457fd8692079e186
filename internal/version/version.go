// Package version reports the build of the nextdynamic binary.
//
// Values are injected with ldflags:
//
//	-ldflags "-X nextdynamic/internal/version.version=v1.0.0 -X nextdynamic/internal/version.commit=abc123 -X nextdynamic/internal/version.buildTime=2025-01-01T00:00:00Z"
//
// When they are missing, the VCS stamp embedded by the Go toolchain is used.
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"gopkg.in/yaml.v3"
)

//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	version   string
	commit    string
	buildTime string
)

// ApplicationName is the name of the application displayed in version output.
const ApplicationName = "nextdynamic"

// Default values used when version information is not available.
const (
	DefaultVersion   = "dev"
	DefaultCommit    = "unknown"
	DefaultBuildTime = "unknown"
)

// Output formats accepted by Write.
const (
	FormatText  = "text"
	FormatShort = "short"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// GetVersion returns the current version information.
func GetVersion() *VersionInfo {
	info := &VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		info.fillFromBuildInfo(build)
	}
	info.applyDefaults()
	return info
}

func (vi *VersionInfo) fillFromBuildInfo(build *debug.BuildInfo) {
	if vi.Version == "" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		vi.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if vi.Commit == "" {
				vi.Commit = setting.Value
			}
		case "vcs.time":
			if vi.BuildTime == "" {
				vi.BuildTime = setting.Value
			}
		case "vcs.modified":
			vi.Modified = setting.Value == "true"
		}
	}
}

func (vi *VersionInfo) applyDefaults() {
	if vi.Version == "" {
		vi.Version = DefaultVersion
	}
	if vi.Commit == "" {
		vi.Commit = DefaultCommit
	}
	if vi.BuildTime == "" {
		vi.BuildTime = DefaultBuildTime
	}
}

// FormatFull returns the multi-line human readable form.
func (vi *VersionInfo) FormatFull() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ApplicationName)
	fmt.Fprintf(&b, "Version: %s\n", vi.Version)
	commit := vi.Commit
	if vi.Modified {
		commit += " (modified)"
	}
	fmt.Fprintf(&b, "Commit: %s\n", commit)
	fmt.Fprintf(&b, "Built: %s\n", vi.BuildTime)
	fmt.Fprintf(&b, "Go: %s\n", vi.GoVersion)
	return b.String()
}

// Write renders the version in the given format.
func (vi *VersionInfo) Write(w io.Writer, format string) error {
	switch format {
	case FormatShort:
		_, err := fmt.Fprintln(w, vi.Version)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(vi)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(vi); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, vi.FormatFull())
		return err
	default:
		return fmt.Errorf("unknown version format %q", format)
	}
}

// IsDevelopment returns true if the version indicates a development build.
func (vi *VersionInfo) IsDevelopment() bool {
	return vi.Version == DefaultVersion
}

// SetBuildVars sets the build-time variables.
func SetBuildVars(ver, com, bt string) {
	version = ver
	commit = com
	buildTime = bt
}

// ResetBuildVars resets all build variables to empty values.
func ResetBuildVars() {
	SetBuildVars("", "", "")
}
