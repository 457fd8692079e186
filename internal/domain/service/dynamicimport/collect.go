package dynamicimport

import (
	"nextdynamic/internal/domain/valueobject"
)

// ImportSource is a module loaded by a helper call.
type ImportSource struct {
	Specifier string `json:"specifier" yaml:"specifier"`
	Line      uint32 `json:"line" yaml:"line"`
}

// CollectImportSources lists, in source order, the first literal import()
// specifier loaded by each helper call. Calls are matched the same way as in
// Transform, but the loader shape is not checked.
func CollectImportSources(tree *valueobject.ParseTree, opts Options) []ImportSource {
	if tree == nil {
		return nil
	}
	opts = opts.withDefaults()
	source := tree.Source()
	program := tree.RootNode()

	var out []ImportSource
	for _, call := range matchCalls(source, program, collectHelperBindings(source, program, opts)) {
		_, args := callArguments(call)
		if len(args) == 0 {
			continue
		}
		if specifier, ok := firstLiteralImport(source, args[0]); ok {
			out = append(out, ImportSource{Specifier: specifier, Line: call.StartPos.Row + 1})
		}
	}
	return out
}

func firstLiteralImport(source []byte, loader *valueobject.ParseNode) (string, bool) {
	var (
		specifier string
		found     bool
	)
	loader.Walk(func(n *valueobject.ParseNode) bool {
		if found {
			return false
		}
		if isDynamicImport(n) {
			specifier, found = importSpecifier(source, n)
			return false
		}
		return true
	})
	return specifier, found
}
