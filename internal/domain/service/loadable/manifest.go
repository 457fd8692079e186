// Package loadable builds the react-loadable manifest that maps module ids of
// dynamically imported modules to the client chunks that load them.
package loadable

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"nextdynamic/internal/domain/errors/domain"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the conventional name of the manifest.
const ManifestFileName = "react-loadable-manifest.json"

// DynamicEntry is a dynamically imported module and the output chunks
// produced for it.
type DynamicEntry struct {
	ModuleID string   `json:"module_id" yaml:"module_id"`
	Files    []string `json:"files" yaml:"files"`
}

// ManifestItem is one manifest record.
type ManifestItem struct {
	ID    string   `json:"id"`
	Files []string `json:"files"`
}

// Manifest maps module ids to their records.
type Manifest map[string]ManifestItem

// BuildManifest creates the manifest for entries. Files are made relative
// to clientRoot; files outside of it are dropped. A later entry with the same
// module id replaces an earlier one.
func BuildManifest(entries []DynamicEntry, clientRoot string) (Manifest, error) {
	if strings.TrimSpace(clientRoot) == "" {
		return nil, fmt.Errorf("%w: client root cannot be empty", domain.ErrInvalidInput)
	}
	root := path.Clean(toSlash(clientRoot))

	manifest := make(Manifest, len(entries))
	for _, entry := range entries {
		if entry.ModuleID == "" {
			return nil, fmt.Errorf("%w: dynamic entry without module id", domain.ErrInvalidInput)
		}
		files := make([]string, 0, len(entry.Files))
		for _, file := range entry.Files {
			if rel, ok := relativeTo(root, file); ok {
				files = append(files, rel)
			}
		}
		manifest[entry.ModuleID] = ManifestItem{ID: entry.ModuleID, Files: files}
	}
	return manifest, nil
}

// relativeTo returns file relative to root when file lies below root.
func relativeTo(root, file string) (string, bool) {
	cleaned := path.Clean(toSlash(file))
	if root == "." {
		if path.IsAbs(cleaned) || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
			return "", false
		}
		return cleaned, true
	}
	prefix := strings.TrimSuffix(root, "/") + "/"
	if !strings.HasPrefix(cleaned, prefix) || cleaned == prefix {
		return "", false
	}
	return strings.TrimPrefix(cleaned, prefix), true
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Write encodes the manifest as indented JSON with sorted keys.
func (m Manifest) Write(w io.Writer) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadEntries decodes a list of dynamic entries. YAML and JSON input are
// both accepted.
func ReadEntries(r io.Reader) ([]DynamicEntry, error) {
	var entries []DynamicEntry
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to decode dynamic entries: %w", domain.ErrInvalidInput, err)
	}
	return entries, nil
}
