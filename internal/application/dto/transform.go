package dto

import (
	"nextdynamic/internal/domain/service/dynamicimport"
	"time"
)

// SourceFile is one input of a batch transform.
type SourceFile struct {
	Path   string
	Source []byte
}

// FileResult describes the outcome of transforming one file.
type FileResult struct {
	Path            string                         `json:"path" yaml:"path"`
	Dialect         string                         `json:"dialect" yaml:"dialect"`
	Mode            string                         `json:"mode" yaml:"mode"`
	Changed         bool                           `json:"changed" yaml:"changed"`
	Skipped         bool                           `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	SkipReason      string                         `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	CallSites       []dynamicimport.CallSiteReport `json:"call_sites,omitempty" yaml:"call_sites,omitempty"`
	ImportsInserted int                            `json:"imports_inserted" yaml:"imports_inserted"`
	ImportsReused   int                            `json:"imports_reused" yaml:"imports_reused"`
	Duration        time.Duration                  `json:"duration" yaml:"duration"`
	Error           string                         `json:"error,omitempty" yaml:"error,omitempty"`
	Output          []byte                         `json:"-" yaml:"-"`
}

// Failed reports whether the file could not be transformed.
func (r *FileResult) Failed() bool {
	return r.Error != ""
}

// FileImports lists the dynamically imported modules of one file.
type FileImports struct {
	Path    string                       `json:"path" yaml:"path"`
	Imports []dynamicimport.ImportSource `json:"imports" yaml:"imports"`
}
