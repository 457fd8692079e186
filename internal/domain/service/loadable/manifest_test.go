package loadable

import (
	"bytes"
	"nextdynamic/internal/domain/errors/domain"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildManifest(t *testing.T) {
	entries := []DynamicEntry{
		{
			ModuleID: "[project]/components/hello.js",
			Files: []string{
				"/app/.next/static/chunks/hello.js",
				"/app/.next/static/chunks/hello.css",
				"/app/.next/server/chunks/hello.js",
			},
		},
		{
			ModuleID: "42",
			Files:    []string{"/elsewhere/chunk.js"},
		},
	}

	manifest, err := BuildManifest(entries, "/app/.next")
	require.NoError(t, err)

	assert.Equal(t, Manifest{
		"[project]/components/hello.js": {
			ID: "[project]/components/hello.js",
			Files: []string{
				"static/chunks/hello.js",
				"static/chunks/hello.css",
				"server/chunks/hello.js",
			},
		},
		"42": {ID: "42", Files: []string{}},
	}, manifest)
}

func TestBuildManifest_RelativePaths(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		file     string
		expected []string
	}{
		{name: "nested file", root: ".next/", file: ".next/static/a.js", expected: []string{"static/a.js"}},
		{name: "dot segments", root: ".next", file: ".next/static/../chunks/a.js", expected: []string{"chunks/a.js"}},
		{name: "sibling prefix", root: ".next", file: ".next-other/a.js", expected: []string{}},
		{name: "root itself", root: ".next", file: ".next", expected: []string{}},
		{name: "windows separators", root: `C:\app\.next`, file: `C:\app\.next\static\a.js`, expected: []string{"static/a.js"}},
		{name: "current directory root", root: ".", file: "static/a.js", expected: []string{"static/a.js"}},
		{name: "escaping current directory", root: ".", file: "../a.js", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest, err := BuildManifest([]DynamicEntry{{ModuleID: "m", Files: []string{tt.file}}}, tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, manifest["m"].Files)
		})
	}
}

func TestBuildManifest_InvalidInput(t *testing.T) {
	_, err := BuildManifest(nil, " ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = BuildManifest([]DynamicEntry{{Files: []string{"a.js"}}}, ".next")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestManifest_Write(t *testing.T) {
	manifest := Manifest{
		"b": {ID: "b", Files: []string{"static/b.js"}},
		"a": {ID: "a", Files: []string{}},
	}

	var buf bytes.Buffer
	require.NoError(t, manifest.Write(&buf))

	expected := `{
  "a": {
    "id": "a",
    "files": []
  },
  "b": {
    "id": "b",
    "files": [
      "static/b.js"
    ]
  }
}`
	assert.Equal(t, expected, buf.String())
}

func TestReadEntries(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		entries, err := ReadEntries(strings.NewReader(`[{"module_id": "1", "files": ["a.js"]}]`))
		require.NoError(t, err)
		assert.Equal(t, []DynamicEntry{{ModuleID: "1", Files: []string{"a.js"}}}, entries)
	})

	t.Run("yaml", func(t *testing.T) {
		entries, err := ReadEntries(strings.NewReader("- module_id: \"2\"\n  files:\n    - b.js\n    - c.js\n"))
		require.NoError(t, err)
		assert.Equal(t, []DynamicEntry{{ModuleID: "2", Files: []string{"b.js", "c.js"}}}, entries)
	})

	t.Run("empty input", func(t *testing.T) {
		entries, err := ReadEntries(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ReadEntries(strings.NewReader(`[{"id": "1"}]`))
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
