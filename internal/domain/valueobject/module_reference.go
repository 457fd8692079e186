package valueobject

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Import attribute keys and values understood by the bundler.
const (
	AttrTurbopackTransition   = "turbopack-transition"
	AttrTurbopackChunkingType = "turbopack-chunking-type"

	TransitionNextDynamic = "next-dynamic"
	ChunkingTypeNone      = "none"
)

// ImportAttribute is a single key/value annotation of an import.
type ImportAttribute struct {
	Key   string
	Value string
}

// ImportAttributes is an ordered set of import attributes with unique keys.
type ImportAttributes struct {
	entries []ImportAttribute
}

// NewImportAttributes creates an attribute set, rejecting duplicate or empty keys.
func NewImportAttributes(attrs ...ImportAttribute) (ImportAttributes, error) {
	seen := make(map[string]bool, len(attrs))
	entries := make([]ImportAttribute, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" {
			return ImportAttributes{}, errors.New("import attribute key cannot be empty")
		}
		if seen[attr.Key] {
			return ImportAttributes{}, fmt.Errorf("duplicate import attribute key: %s", attr.Key)
		}
		seen[attr.Key] = true
		entries = append(entries, attr)
	}
	return ImportAttributes{entries: entries}, nil
}

// With returns a copy with key set to value. An existing key keeps its position.
func (a ImportAttributes) With(key, value string) ImportAttributes {
	entries := make([]ImportAttribute, 0, len(a.entries)+1)
	replaced := false
	for _, e := range a.entries {
		if e.Key == key {
			e.Value = value
			replaced = true
		}
		entries = append(entries, e)
	}
	if !replaced {
		entries = append(entries, ImportAttribute{Key: key, Value: value})
	}
	return ImportAttributes{entries: entries}
}

// Get returns the value stored under key.
func (a ImportAttributes) Get(key string) (string, bool) {
	for _, e := range a.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (a ImportAttributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Len returns the number of attributes.
func (a ImportAttributes) Len() int {
	return len(a.entries)
}

// Entries returns the attributes in insertion order.
func (a ImportAttributes) Entries() []ImportAttribute {
	out := make([]ImportAttribute, len(a.entries))
	copy(out, a.entries)
	return out
}

// Equal compares two attribute sets ignoring order.
func (a ImportAttributes) Equal(other ImportAttributes) bool {
	return a.Key() == other.Key()
}

// Key returns an order-independent canonical form of the set.
func (a ImportAttributes) Key() string {
	parts := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		parts = append(parts, strconv.Quote(e.Key)+":"+strconv.Quote(e.Value))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// Source renders the set as a JavaScript object literal, e.g.
// { "turbopack-chunking-type": "none" }.
func (a ImportAttributes) Source() string {
	if len(a.entries) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		parts = append(parts, strconv.Quote(e.Key)+": "+strconv.Quote(e.Value))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// ModuleReference is a literal import specifier plus its attribute set.
type ModuleReference struct {
	Specifier  string
	Attributes ImportAttributes
}

// NewModuleReference creates a ModuleReference with validation.
func NewModuleReference(specifier string, attrs ImportAttributes) (ModuleReference, error) {
	if specifier == "" {
		return ModuleReference{}, errors.New("module specifier cannot be empty")
	}
	return ModuleReference{Specifier: specifier, Attributes: attrs}, nil
}

// Key identifies the reference by specifier and attribute set.
func (r ModuleReference) Key() string {
	return r.Specifier + "\x00" + r.Attributes.Key()
}
