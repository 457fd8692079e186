package dynamicimport

import (
	"nextdynamic/internal/domain/valueobject"
	"strconv"
	"strings"
)

// moduleIDImports tracks the module-id imports of a file, both those already
// present and those synthesized by the current pass. fallbacks holds the
// imports synthesized because the existing local was shadowed at a call site.
type moduleIDImports struct {
	opts      Options
	locals    map[string]string
	fallbacks map[string]string
	taken     map[string]bool
}

func newModuleIDImports(source []byte, program *valueobject.ParseNode, opts Options) *moduleIDImports {
	m := &moduleIDImports{
		opts:      opts,
		locals:    make(map[string]string),
		fallbacks: make(map[string]string),
		taken:     identifierNames(source, program),
	}
	for _, stmt := range program.NamedChildren() {
		if stmt.Type != nodeImportStatement {
			continue
		}
		ref, local, ok := m.parseModuleIDImport(source, stmt)
		if !ok {
			continue
		}
		if _, exists := m.locals[ref.Key()]; !exists {
			m.locals[ref.Key()] = local
		}
	}
	return m
}

// parseModuleIDImport recognizes
// import { <export> as <local> } from "<specifier>" with { ... }.
func (m *moduleIDImports) parseModuleIDImport(
	source []byte,
	stmt *valueobject.ParseNode,
) (valueobject.ModuleReference, string, bool) {
	specifier, ok := stringValue(source, stmt.ChildOfType(nodeString))
	if !ok {
		return valueobject.ModuleReference{}, "", false
	}
	clause := stmt.ChildOfType(nodeImportClause)
	if clause == nil {
		return valueobject.ModuleReference{}, "", false
	}
	named := clause.ChildOfType(nodeNamedImports)
	if named == nil {
		return valueobject.ModuleReference{}, "", false
	}

	local := ""
	for _, spec := range named.ChildrenOfType(nodeImportSpecifier) {
		imported, name, ok := importSpecifierNames(source, spec)
		if ok && imported == m.opts.ModuleIDExport {
			local = name
			break
		}
	}
	if local == "" {
		return valueobject.ModuleReference{}, "", false
	}

	attrs, ok := staticAttributes(source, stmt.ChildOfType(nodeImportAttribute))
	if !ok {
		return valueobject.ModuleReference{}, "", false
	}
	ref, err := valueobject.NewModuleReference(specifier, attrs)
	if err != nil {
		return valueobject.ModuleReference{}, "", false
	}
	return ref, local, true
}

// staticAttributes reads a `with { ... }` clause whose keys and values are
// all literals. A missing clause is an empty set.
func staticAttributes(source []byte, clause *valueobject.ParseNode) (valueobject.ImportAttributes, bool) {
	if clause == nil {
		return valueobject.ImportAttributes{}, true
	}
	obj := clause.ChildOfType(nodeObject)
	if obj == nil {
		return valueobject.ImportAttributes{}, false
	}
	var attrs []valueobject.ImportAttribute
	for _, member := range obj.NamedChildren() {
		if member.Type != nodePair {
			return valueobject.ImportAttributes{}, false
		}
		key, ok := propertyName(source, member.FirstNamedChild())
		if !ok {
			return valueobject.ImportAttributes{}, false
		}
		value, ok := stringValue(source, pairValue(member))
		if !ok {
			return valueobject.ImportAttributes{}, false
		}
		attrs = append(attrs, valueobject.ImportAttribute{Key: key, Value: value})
	}
	set, err := valueobject.NewImportAttributes(attrs...)
	if err != nil {
		return valueobject.ImportAttributes{}, false
	}
	return set, true
}

// bindingPlan is the outcome of resolving the specifiers of one call site.
type bindingPlan struct {
	names   []string
	fresh   map[string]string
	inserts []edit
}

// plan resolves a local name for every specifier, reusing known imports that
// are visible at the call and allocating fresh names for the rest. Nothing is
// recorded until commit.
func (m *moduleIDImports) plan(source []byte, site *callSite) bindingPlan {
	attrs := m.opts.synthesizedAttributes()
	plan := bindingPlan{fresh: make(map[string]string)}
	reserved := make(map[string]bool)

	for _, specifier := range site.specifiers() {
		ref := valueobject.ModuleReference{Specifier: specifier, Attributes: attrs}
		if local, ok := m.visible(source, site, ref.Key()); ok {
			plan.names = append(plan.names, local)
			continue
		}
		local := m.allocate(reserved)
		reserved[local] = true
		plan.fresh[ref.Key()] = local
		plan.names = append(plan.names, local)
		plan.inserts = append(plan.inserts, m.importEdit(source, site.statement, ref, local))
	}
	return plan
}

// visible returns the known local for key unless a declaration between the
// call and the program scope hides it. Synthesized names avoid every
// identifier of the file, so a fallback is never hidden.
func (m *moduleIDImports) visible(source []byte, site *callSite, key string) (string, bool) {
	if local, ok := m.locals[key]; ok && !isShadowed(source, site.call, local) {
		return local, true
	}
	local, ok := m.fallbacks[key]
	return local, ok
}

// commit records the names of an accepted plan.
func (m *moduleIDImports) commit(plan bindingPlan) {
	for key, local := range plan.fresh {
		if _, exists := m.locals[key]; exists {
			m.fallbacks[key] = local
		} else {
			m.locals[key] = local
		}
		m.taken[local] = true
	}
}

// allocate returns the first of id, id1, id2, ... that is not used in the file.
func (m *moduleIDImports) allocate(reserved map[string]bool) string {
	base := m.opts.BindingName
	candidate := base
	for i := 1; m.taken[candidate] || reserved[candidate]; i++ {
		candidate = base + strconv.Itoa(i)
	}
	return candidate
}

// importEdit inserts the module-id import on its own line before stmt.
func (m *moduleIDImports) importEdit(
	source []byte,
	stmt *valueobject.ParseNode,
	ref valueobject.ModuleReference,
	local string,
) edit {
	var b strings.Builder
	b.WriteString("import { ")
	b.WriteString(m.opts.ModuleIDExport)
	b.WriteString(" as ")
	b.WriteString(local)
	b.WriteString(" } from ")
	b.WriteString(strconv.Quote(ref.Specifier))
	b.WriteString(" with ")
	b.WriteString(ref.Attributes.Source())
	b.WriteString(";\n")

	offset := stmt.StartByte
	indent, onlyWhitespace := indentBefore(source, offset)
	if onlyWhitespace {
		return insertAt(offset-uint32(len(indent)), b.String())
	}
	return insertAt(offset, b.String())
}

// transitionEdits merges the transition attribute into every unwrapped
// import() of the call.
func transitionEdits(source []byte, site *callSite) []edit {
	var edits []edit
	for _, imp := range site.imports {
		if imp.wrapped {
			continue
		}
		if e, ok := transitionEdit(source, imp.call); ok {
			edits = append(edits, e)
		}
	}
	return edits
}

func transitionEdit(source []byte, importCall *valueobject.ParseNode) (edit, bool) {
	transition := strconv.Quote(valueobject.AttrTurbopackTransition) + ": " +
		strconv.Quote(valueobject.TransitionNextDynamic)

	_, args := callArguments(importCall)
	if len(args) == 1 {
		return insertAt(args[0].EndByte, ", { with: { "+transition+" } }"), true
	}

	options := unwrapParens(args[1])
	if options.Type != nodeObject {
		return edit{}, false
	}
	with, ok := findMember(source, options, "with")
	if !ok {
		return insertProperty(source, options, "with: { "+transition+" }", true), true
	}
	if with.value == nil || with.value.Type != nodeObject {
		return edit{}, false
	}
	if _, exists := findMember(source, with.value, valueobject.AttrTurbopackTransition); exists {
		return edit{}, false
	}
	return insertProperty(source, with.value, transition, false), true
}
