package dynamicimport

import (
	"nextdynamic/internal/domain/valueobject"
	"strings"
)

const (
	loadableGeneratedKey = "loadableGenerated"
	modulesKey           = "modules"
)

// modulesArray renders the modules list, e.g. [id, id1].
func modulesArray(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}

func loadableGeneratedObject(names []string) string {
	return "{ " + modulesKey + ": " + modulesArray(names) + " }"
}

// optionsEdits merges loadableGenerated into the options argument of a call.
func optionsEdits(source []byte, site *callSite, names []string) ([]edit, SkipReason) {
	property := loadableGeneratedKey + ": " + loadableGeneratedObject(names)

	if site.options == nil {
		return []edit{insertAt(site.loader.EndByte, ", { "+property+" }")}, SkipNone
	}

	options := unwrapParens(site.options)
	if options.Type != nodeObject {
		return nil, SkipUnsupportedOptions
	}

	member, ok := findMember(source, options, loadableGeneratedKey)
	if !ok {
		return []edit{insertProperty(source, options, property, true)}, SkipNone
	}
	if member.value == nil {
		return []edit{replaceRange(member.node.StartByte, member.node.EndByte, property)}, SkipNone
	}

	generated := unwrapParens(member.value)
	if generated.Type != nodeObject {
		return []edit{replaceRange(member.value.StartByte, member.value.EndByte, loadableGeneratedObject(names))}, SkipNone
	}

	modules, ok := findMember(source, generated, modulesKey)
	switch {
	case !ok:
		return []edit{insertProperty(source, generated, modulesKey+": "+modulesArray(names), false)}, SkipNone
	case modules.value == nil:
		return []edit{replaceRange(modules.node.StartByte, modules.node.EndByte, modulesKey+": "+modulesArray(names))}, SkipNone
	default:
		return []edit{replaceRange(modules.value.StartByte, modules.value.EndByte, modulesArray(names))}, SkipNone
	}
}

// insertProperty adds a property to an object literal, either before its
// first member or after its last one. Members keep their text; a multi-line
// object gets the new property on its own line.
func insertProperty(source []byte, obj *valueobject.ParseNode, property string, first bool) edit {
	members := obj.NamedChildren()
	if len(members) == 0 {
		return insertAt(obj.StartByte+1, " "+property+" ")
	}

	if first {
		head := members[0]
		if sameLine(source, obj.StartByte, head.StartByte) {
			return insertAt(head.StartByte, property+", ")
		}
		return insertAt(head.StartByte, property+",\n"+lineIndent(source, head.StartByte))
	}

	tail := members[len(members)-1]
	if sameLine(source, tail.EndByte, obj.EndByte) {
		return insertAt(tail.EndByte, ", "+property)
	}
	return insertAt(tail.EndByte, ",\n"+lineIndent(source, tail.StartByte)+property)
}
