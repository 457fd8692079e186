package dynamicimport_test

import (
	"context"
	"nextdynamic/internal/adapter/outbound/treesitter"
	"nextdynamic/internal/domain/service/dynamicimport"
	"nextdynamic/internal/domain/valueobject"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	devAttrs    = `{ "turbopack-transition": "next-dynamic", "turbopack-chunking-type": "none" }`
	serverAttrs = `{ "turbopack-chunking-type": "none" }`
	transition  = `{ with: { "turbopack-transition": "next-dynamic" } }`
)

func parse(t *testing.T, source string) *valueobject.ParseTree {
	t.Helper()
	tree, err := treesitter.NewSourceParser().Parse(context.Background(), valueobject.DialectJavaScript, []byte(source))
	require.NoError(t, err)
	require.False(t, tree.HasSyntaxErrors(), tree.ToSExpression())
	return tree
}

func run(t *testing.T, opts dynamicimport.Options, source string) *dynamicimport.Result {
	t.Helper()
	transformer, err := dynamicimport.NewTransformer(opts)
	require.NoError(t, err)
	result, err := transformer.Transform(parse(t, source))
	require.NoError(t, err)
	return result
}

func devClient() dynamicimport.Options {
	return dynamicimport.DefaultOptions(valueobject.TargetModeDevClient)
}

func moduleIDImport(local, specifier, attrs string) string {
	return `import { __turbopack_module_id__ as ` + local + ` } from "` + specifier + `" with ` + attrs + ";\n"
}

func TestTransform_DevClientWithOptions(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n\n" +
		"const Hello = dynamic(() => import('../components/hello'), { ssr: false })\n"

	result := run(t, devClient(), source)

	expected := "import dynamic from 'next/dynamic'\n\n" +
		moduleIDImport("id", "../components/hello", devAttrs) +
		"const Hello = dynamic(() => import('../components/hello', " + transition + "), " +
		"{ loadableGenerated: { modules: [id] }, ssr: false })\n"
	assert.Equal(t, expected, string(result.Output))
	assert.True(t, result.Changed)
	assert.Equal(t, 1, result.ImportsInserted)
	assert.Equal(t, 1, result.RewrittenCalls)

	require.Len(t, result.CallSites, 1)
	site := result.CallSites[0]
	assert.Equal(t, uint32(3), site.Line)
	assert.Equal(t, uint32(15), site.Column)
	assert.Equal(t, []string{"../components/hello"}, site.Specifiers)
	assert.Equal(t, []string{"id"}, site.Bindings)
	assert.True(t, site.Rewritten)
	assert.Equal(t, dynamicimport.SkipNone, site.SkipReason)
}

func TestTransform_TargetModes(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(() => import('./a'))\n"

	tests := []struct {
		name     string
		mode     valueobject.TargetMode
		expected string
	}{
		{
			name: "dev client marks both imports",
			mode: valueobject.TargetModeDevClient,
			expected: "import dynamic from 'next/dynamic'\n" +
				moduleIDImport("id", "./a", devAttrs) +
				"const A = dynamic(() => import('./a', " + transition + "), { loadableGenerated: { modules: [id] } })\n",
		},
		{
			name: "plain bundle marks both imports",
			mode: valueobject.TargetModePlainBundle,
			expected: "import dynamic from 'next/dynamic'\n" +
				moduleIDImport("id", "./a", devAttrs) +
				"const A = dynamic(() => import('./a', " + transition + "), { loadableGenerated: { modules: [id] } })\n",
		},
		{
			name: "server only adds the chunking hint",
			mode: valueobject.TargetModeServer,
			expected: "import dynamic from 'next/dynamic'\n" +
				moduleIDImport("id", "./a", serverAttrs) +
				"const A = dynamic(() => import('./a'), { loadableGenerated: { modules: [id] } })\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, dynamicimport.DefaultOptions(tt.mode), source)
			assert.Equal(t, tt.expected, string(result.Output))
		})
	}
}

func TestTransform_UnchangedSources(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "no helper import",
			source: "const A = dynamic(() => import('./a'))\n",
		},
		{
			name:   "helper imported from another module",
			source: "import dynamic from 'other/dynamic'\nconst A = dynamic(() => import('./a'))\n",
		},
		{
			name:   "member call",
			source: "import dynamic from 'next/dynamic'\nconst A = somethingElse.dynamic(() => import('./a'))\n",
		},
		{
			name:   "named import of another export",
			source: "import { preload } from 'next/dynamic'\nconst A = preload(() => import('./a'))\n",
		},
		{
			name: "shadowed by parameter",
			source: "import dynamic from 'next/dynamic'\n" +
				"function load(dynamic) {\n  return dynamic(() => import('./a'))\n}\n",
		},
		{
			name: "shadowed by block declaration",
			source: "import dynamic from 'next/dynamic'\n" +
				"{\n  const dynamic = (f) => f\n  dynamic(() => import('./a'))\n}\n",
		},
		{
			name: "shadowed by hoisted var",
			source: "import dynamic from 'next/dynamic'\n" +
				"function load() {\n  if (true) { var dynamic = (f) => f }\n  return dynamic(() => import('./a'))\n}\n",
		},
		{
			name: "shadowed by destructured arrow parameter",
			source: "import dynamic from 'next/dynamic'\n" +
				"const load = ({ dynamic }) => dynamic(() => import('./a'))\n",
		},
		{
			name: "shadowed by catch parameter",
			source: "import dynamic from 'next/dynamic'\n" +
				"try {} catch (dynamic) { dynamic(() => import('./a')) }\n",
		},
		{
			name: "shadowed by for head",
			source: "import dynamic from 'next/dynamic'\n" +
				"for (const dynamic of loaders) { dynamic(() => import('./a')) }\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, devClient(), tt.source)
			assert.Equal(t, tt.source, string(result.Output))
			assert.False(t, result.Changed)
			assert.Empty(t, result.CallSites)
		})
	}
}

func TestTransform_SkippedCallSites(t *testing.T) {
	tests := []struct {
		name   string
		call   string
		reason dynamicimport.SkipReason
	}{
		{
			name:   "template specifier",
			call:   "dynamic(() => import(`./${name}`))",
			reason: dynamicimport.SkipNonLiteralSpecifier,
		},
		{
			name:   "computed specifier",
			call:   "dynamic(() => import(name))",
			reason: dynamicimport.SkipNonLiteralSpecifier,
		},
		{
			name:   "escaped specifier",
			call:   `dynamic(() => import('.\/a'))`,
			reason: dynamicimport.SkipNonLiteralSpecifier,
		},
		{
			name:   "options not an object",
			call:   "dynamic(() => import('./a'), options)",
			reason: dynamicimport.SkipUnsupportedOptions,
		},
		{
			name:   "loader is not a function",
			call:   "dynamic(loader)",
			reason: dynamicimport.SkipMalformedLoader,
		},
		{
			name:   "loader returns something else",
			call:   "dynamic(() => { const m = load(); return m })",
			reason: dynamicimport.SkipMalformedLoader,
		},
		{
			name:   "loader with more than one return",
			call:   "dynamic(() => { if (c) return import('./a'); return import('./b') })",
			reason: dynamicimport.SkipMalformedLoader,
		},
		{
			name:   "loader returns only conditionally",
			call:   "dynamic(function () { if (c) { return import('./a') } })",
			reason: dynamicimport.SkipMalformedLoader,
		},
		{
			name:   "no arguments",
			call:   "dynamic()",
			reason: dynamicimport.SkipMalformedLoader,
		},
		{
			name:   "import nested two calls deep",
			call:   "dynamic(() => outer(inner(import('./a'))))",
			reason: dynamicimport.SkipMalformedLoader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "import dynamic from 'next/dynamic'\nconst A = " + tt.call + "\n"
			result := run(t, devClient(), source)

			assert.Equal(t, source, string(result.Output))
			assert.False(t, result.Changed)
			require.Len(t, result.CallSites, 1)
			assert.False(t, result.CallSites[0].Rewritten)
			assert.Equal(t, tt.reason, result.CallSites[0].SkipReason)
			assert.Equal(t, 1, result.SkippedCallSites)
		})
	}
}

func TestTransform_LoaderReturnInNestedFunctionIgnored(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(() => { const pick = (m) => { return m.A }; return import('./a').then(pick) })\n"

	result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		"const A = dynamic(() => { const pick = (m) => { return m.A }; return import('./a').then(pick) }, " +
		"{ loadableGenerated: { modules: [id] } })\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestTransform_WrappedImportKeepsAttributes(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(() => wrapper(import('./a')), { ssr: false })\n"

	result := run(t, devClient(), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", devAttrs) +
		"const A = dynamic(() => wrapper(import('./a')), { loadableGenerated: { modules: [id] }, ssr: false })\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestTransform_WrapperWithSeveralImports(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(() => Promise.all([load(import('./a'), import('./b'))]))\n" +
		"const B = dynamic(() => combine(import('./a'), import('./b')))\n"

	result := run(t, devClient(), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(() => Promise.all([load(import('./a'), import('./b'))]))\n" +
		moduleIDImport("id", "./a", devAttrs) +
		moduleIDImport("id1", "./b", devAttrs) +
		"const B = dynamic(() => combine(import('./a'), import('./b')), { loadableGenerated: { modules: [id, id1] } })\n"
	assert.Equal(t, expected, string(result.Output))
	require.Len(t, result.CallSites, 2)
	assert.Equal(t, dynamicimport.SkipMalformedLoader, result.CallSites[0].SkipReason)
	assert.Equal(t, []string{"id", "id1"}, result.CallSites[1].Bindings)
}

func TestTransform_SharedSpecifierSharesImport(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(() => import('./a'))\n" +
		"const B = dynamic(() => import('./a'), { ssr: false })\n"

	result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		"const A = dynamic(() => import('./a'), { loadableGenerated: { modules: [id] } })\n" +
		"const B = dynamic(() => import('./a'), { loadableGenerated: { modules: [id] }, ssr: false })\n"
	assert.Equal(t, expected, string(result.Output))
	assert.Equal(t, 1, result.ImportsInserted)
	assert.Equal(t, 1, result.ImportsReused)
}

func TestTransform_Idempotent(t *testing.T) {
	sources := []string{
		"import dynamic from 'next/dynamic'\n" +
			"const A = dynamic(() => import('./a'), { ssr: false })\n" +
			"const B = dynamic(() => wrapper(import('./b')))\n" +
			"export default function Page() {\n" +
			"  const C = dynamic(() => import('./c').then((m) => m.C), {\n" +
			"    loading: () => null,\n" +
			"  })\n" +
			"  return C\n" +
			"}\n",
		"import dyn from 'next/dynamic'\n" +
			"const id = 1\n" +
			"const A = dyn(() => import('./a').then((m) => m.A),)\n",
	}

	for _, mode := range valueobject.AllTargetModes() {
		for _, source := range sources {
			t.Run(mode.String(), func(t *testing.T) {
				first := run(t, dynamicimport.DefaultOptions(mode), source)
				require.True(t, first.Changed)

				second := run(t, dynamicimport.DefaultOptions(mode), string(first.Output))
				assert.Equal(t, string(first.Output), string(second.Output))
				assert.False(t, second.Changed)
				assert.Zero(t, second.ImportsInserted)
			})
		}
	}
}

func TestTransform_ExistingLoadableGenerated(t *testing.T) {
	tests := []struct {
		name     string
		options  string
		expected string
	}{
		{
			name:     "stale modules are replaced",
			options:  "{ loadableGenerated: { modules: ['stale', other] }, ssr: false }",
			expected: "{ loadableGenerated: { modules: [id] }, ssr: false }",
		},
		{
			name:     "missing modules are added",
			options:  "{ ssr: false, loadableGenerated: { webpack: () => [] } }",
			expected: "{ ssr: false, loadableGenerated: { webpack: () => [], modules: [id] } }",
		},
		{
			name:     "empty object gets modules",
			options:  "{ loadableGenerated: {} }",
			expected: "{ loadableGenerated: { modules: [id] } }",
		},
		{
			name:     "non-object value is replaced",
			options:  "{ loadableGenerated: generated }",
			expected: "{ loadableGenerated: { modules: [id] } }",
		},
		{
			name:     "empty options object",
			options:  "{}",
			expected: "{ loadableGenerated: { modules: [id] } }",
		},
		{
			name:     "quoted key",
			options:  `{ "loadableGenerated": { "modules": [] } }`,
			expected: `{ "loadableGenerated": { "modules": [id] } }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "import dynamic from 'next/dynamic'\n" +
				"const A = dynamic(() => import('./a'), " + tt.options + ")\n"

			result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

			expected := "import dynamic from 'next/dynamic'\n" +
				moduleIDImport("id", "./a", serverAttrs) +
				"const A = dynamic(() => import('./a'), " + tt.expected + ")\n"
			assert.Equal(t, expected, string(result.Output))
		})
	}
}

func TestTransform_MultilineOptions(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(() => import('./a'), {\n" +
		"  ssr: false,\n" +
		"  loading: () => null,\n" +
		"})\n"

	result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		"const A = dynamic(() => import('./a'), {\n" +
		"  loadableGenerated: { modules: [id] },\n" +
		"  ssr: false,\n" +
		"  loading: () => null,\n" +
		"})\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestTransform_ImportAttributesAreMerged(t *testing.T) {
	tests := []struct {
		name     string
		loader   string
		expected string
	}{
		{
			name:     "existing with object",
			loader:   "() => import('./a', { with: { type: 'json' } })",
			expected: `() => import('./a', { with: { type: 'json', "turbopack-transition": "next-dynamic" } })`,
		},
		{
			name:     "options without with",
			loader:   "() => import('./a', { other: true })",
			expected: `() => import('./a', { with: { "turbopack-transition": "next-dynamic" }, other: true })`,
		},
		{
			name:     "transition already present",
			loader:   `() => import('./a', { with: { "turbopack-transition": "custom" } })`,
			expected: `() => import('./a', { with: { "turbopack-transition": "custom" } })`,
		},
		{
			name:     "promise chain",
			loader:   "() => import('./a').then((m) => m.A)",
			expected: "() => import('./a', " + transition + ").then((m) => m.A)",
		},
		{
			name:     "function expression with return",
			loader:   "function () { return import('./a') }",
			expected: "function () { return import('./a', " + transition + ") }",
		},
		{
			name:     "async arrow with await",
			loader:   "async () => await import('./a')",
			expected: "async () => await import('./a', " + transition + ")",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "import dynamic from 'next/dynamic'\nconst A = dynamic(" + tt.loader + ")\n"

			result := run(t, devClient(), source)

			expected := "import dynamic from 'next/dynamic'\n" +
				moduleIDImport("id", "./a", devAttrs) +
				"const A = dynamic(" + tt.expected + ", { loadableGenerated: { modules: [id] } })\n"
			assert.Equal(t, expected, string(result.Output))
		})
	}
}

func TestTransform_BindingNamesAvoidCollisions(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const id = 1, id1 = { id2: true }\n" +
		"const A = dynamic(() => import('./a'))\n"

	result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		"const id = 1, id1 = { id2: true }\n" +
		moduleIDImport("id3", "./a", serverAttrs) +
		"const A = dynamic(() => import('./a'), { loadableGenerated: { modules: [id3] } })\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestTransform_ReusesExistingModuleIDImport(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		`import { __turbopack_module_id__ as mod } from './a' with { "turbopack-chunking-type": "none", "turbopack-transition": "next-dynamic" }` + "\n" +
		"const A = dynamic(() => wrapper(import('./a')))\n"

	result := run(t, devClient(), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		`import { __turbopack_module_id__ as mod } from './a' with { "turbopack-chunking-type": "none", "turbopack-transition": "next-dynamic" }` + "\n" +
		"const A = dynamic(() => wrapper(import('./a')), { loadableGenerated: { modules: [mod] } })\n"
	assert.Equal(t, expected, string(result.Output))
	assert.Zero(t, result.ImportsInserted)
	assert.Equal(t, 1, result.ImportsReused)
}

func TestTransform_ShadowedModuleIDImportGetsNewImport(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		"export function Page({ id }) {\n" +
		"  const A = dynamic(() => import('./a'))\n" +
		"  return A\n" +
		"}\n" +
		"const B = dynamic(() => import('./a'))\n" +
		"export function Other(id) {\n" +
		"  return dynamic(() => import('./a'))\n" +
		"}\n"

	result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		moduleIDImport("id1", "./a", serverAttrs) +
		"export function Page({ id }) {\n" +
		"  const A = dynamic(() => import('./a'), { loadableGenerated: { modules: [id1] } })\n" +
		"  return A\n" +
		"}\n" +
		"const B = dynamic(() => import('./a'), { loadableGenerated: { modules: [id] } })\n" +
		"export function Other(id) {\n" +
		"  return dynamic(() => import('./a'), { loadableGenerated: { modules: [id1] } })\n" +
		"}\n"
	assert.Equal(t, expected, string(result.Output))
	assert.Equal(t, 1, result.ImportsInserted)
	assert.Equal(t, 2, result.ImportsReused)
}

func TestTransform_DifferentAttributeSetGetsNewImport(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		"const A = dynamic(() => wrapper(import('./a')))\n"

	result := run(t, devClient(), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		moduleIDImport("id1", "./a", devAttrs) +
		"const A = dynamic(() => wrapper(import('./a')), { loadableGenerated: { modules: [id1] } })\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestTransform_NestedCallInsertsBeforeTopLevelStatement(t *testing.T) {
	source := "import { default as dyn } from 'next/dynamic'\n" +
		"\n" +
		"export function Page() {\n" +
		"  const A = dyn(() => import('./a'))\n" +
		"  return A\n" +
		"}\n"

	result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

	expected := "import { default as dyn } from 'next/dynamic'\n" +
		"\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		"export function Page() {\n" +
		"  const A = dyn(() => import('./a'), { loadableGenerated: { modules: [id] } })\n" +
		"  return A\n" +
		"}\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestTransform_NestedHelperCalls(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(() => import('./a'), { loading: () => dynamic(() => import('./b')) })\n"

	result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		moduleIDImport("id1", "./b", serverAttrs) +
		"const A = dynamic(() => import('./a'), { loadableGenerated: { modules: [id] }, " +
		"loading: () => dynamic(() => import('./b'), { loadableGenerated: { modules: [id1] } }) })\n"
	assert.Equal(t, expected, string(result.Output))
	require.Len(t, result.CallSites, 2)
	assert.Equal(t, uint32(11), result.CallSites[0].Column)
}

func TestTransform_TrailingCommaWithoutOptions(t *testing.T) {
	source := "import dynamic from 'next/dynamic'\n" +
		"const A = dynamic(\n  () => import('./a'),\n)\n"

	result := run(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), source)

	expected := "import dynamic from 'next/dynamic'\n" +
		moduleIDImport("id", "./a", serverAttrs) +
		"const A = dynamic(\n  () => import('./a'), { loadableGenerated: { modules: [id] } },\n)\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestTransform_CustomOptions(t *testing.T) {
	opts := dynamicimport.Options{
		Mode:           valueobject.TargetModeServer,
		HelperModules:  []string{"next/dynamic", "@acme/lazy"},
		HelperExport:   "lazy",
		ModuleIDExport: "moduleId",
		BindingName:    "chunk",
	}
	source := "import { lazy } from '@acme/lazy'\n" +
		"const A = lazy(() => import('./a'))\n"

	result := run(t, opts, source)

	expected := "import { lazy } from '@acme/lazy'\n" +
		`import { moduleId as chunk } from "./a" with ` + serverAttrs + ";\n" +
		"const A = lazy(() => import('./a'), { loadableGenerated: { modules: [chunk] } })\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestNewTransformer_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts dynamicimport.Options
	}{
		{name: "unknown mode", opts: dynamicimport.Options{Mode: "edge"}},
		{
			name: "binding name not an identifier",
			opts: dynamicimport.Options{Mode: valueobject.TargetModeServer, BindingName: "1d"},
		},
		{
			name: "empty helper module",
			opts: dynamicimport.Options{Mode: valueobject.TargetModeServer, HelperModules: []string{""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dynamicimport.NewTransformer(tt.opts)
			require.Error(t, err)
		})
	}

	transformer, err := dynamicimport.NewTransformer(dynamicimport.Options{Mode: valueobject.TargetModeServer})
	require.NoError(t, err)
	assert.Equal(t, dynamicimport.DefaultOptions(valueobject.TargetModeServer), transformer.Options())
}
