// Package dynamicimport rewrites calls to the next/dynamic helper so the
// bundler can map every dynamically imported module to a module id.
//
// A pass runs over one parsed file in three steps. Call sites are matched
// through the helper's import binding and lexical scope, the companion
// module-id imports are synthesized or reused, and the call's options object
// receives a loadableGenerated property. All changes are byte edits over the
// original source.
package dynamicimport

import (
	"fmt"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/valueobject"
	"regexp"
)

// Defaults used when an Options field is left empty.
const (
	DefaultHelperModule   = "next/dynamic"
	DefaultHelperExport   = "default"
	DefaultModuleIDExport = "__turbopack_module_id__"
	DefaultBindingName    = "id"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Options configures a Transformer.
type Options struct {
	Mode valueobject.TargetMode
	// HelperModules lists the module specifiers that export the helper.
	HelperModules []string
	// HelperExport is the export name of the helper, "default" for a default import.
	HelperExport string
	// ModuleIDExport is the export the synthesized imports bind.
	ModuleIDExport string
	// BindingName is the base for synthesized local names.
	BindingName string
}

// DefaultOptions returns the options for the given target mode.
func DefaultOptions(mode valueobject.TargetMode) Options {
	return Options{
		Mode:           mode,
		HelperModules:  []string{DefaultHelperModule},
		HelperExport:   DefaultHelperExport,
		ModuleIDExport: DefaultModuleIDExport,
		BindingName:    DefaultBindingName,
	}
}

// withDefaults fills empty fields from DefaultOptions.
func (o Options) withDefaults() Options {
	defaults := DefaultOptions(o.Mode)
	if len(o.HelperModules) == 0 {
		o.HelperModules = defaults.HelperModules
	}
	if o.HelperExport == "" {
		o.HelperExport = defaults.HelperExport
	}
	if o.ModuleIDExport == "" {
		o.ModuleIDExport = defaults.ModuleIDExport
	}
	if o.BindingName == "" {
		o.BindingName = defaults.BindingName
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if _, err := valueobject.NewTargetMode(o.Mode.String()); err != nil {
		return err
	}
	for _, module := range o.HelperModules {
		if module == "" {
			return fmt.Errorf("%w: helper module cannot be empty", domain.ErrInvalidInput)
		}
	}
	if o.HelperExport != DefaultHelperExport && !identifierPattern.MatchString(o.HelperExport) {
		return fmt.Errorf("%w: helper export %q is not an identifier", domain.ErrInvalidInput, o.HelperExport)
	}
	if !identifierPattern.MatchString(o.ModuleIDExport) {
		return fmt.Errorf("%w: module id export %q is not an identifier", domain.ErrInvalidInput, o.ModuleIDExport)
	}
	if !identifierPattern.MatchString(o.BindingName) {
		return fmt.Errorf("%w: binding name %q is not an identifier", domain.ErrInvalidInput, o.BindingName)
	}
	return nil
}

func (o Options) isHelperModule(specifier string) bool {
	for _, module := range o.HelperModules {
		if module == specifier {
			return true
		}
	}
	return false
}

// synthesizedAttributes returns the attribute set of a module-id import for
// the configured mode.
func (o Options) synthesizedAttributes() valueobject.ImportAttributes {
	var attrs valueobject.ImportAttributes
	if o.Mode.RequiresTransition() {
		attrs = attrs.With(valueobject.AttrTurbopackTransition, valueobject.TransitionNextDynamic)
	}
	return attrs.With(valueobject.AttrTurbopackChunkingType, valueobject.ChunkingTypeNone)
}
