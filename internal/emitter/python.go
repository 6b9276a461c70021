package emitter

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

//go:embed runtime/remote.py
var pyRuntime string

// PythonEmitter generates Python clients with TypedDict and Enum declarations
type PythonEmitter struct{}

func (e *PythonEmitter) Language() Language     { return Python }
func (e *PythonEmitter) Static() bool           { return false }
func (e *PythonEmitter) ModelsFileName() string { return "" }

// FileName returns "<snake>.py"
func (e *PythonEmitter) FileName(className string) string {
	return toSnakeCase(sanitizeIdentifier(className)) + ".py"
}

func (e *PythonEmitter) Runtime(opts Options) []File {
	return []File{
		{Path: "remote.py", Content: pyRuntime},
		{Path: "__init__.py", Content: ""},
	}
}

// EmitModels is a no-op: declarations live in each class module.
func (e *PythonEmitter) EmitModels(decls []ir.Node, opts Options) (*Rendered, error) {
	return nil, nil
}

var pyTypes = &typeTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "str",
		ir.KindInteger: "int",
		ir.KindDouble:  "float",
		ir.KindBoolean: "bool",
		ir.KindAny:     "Any",
		ir.KindVoid:    "None",
		ir.KindDate:    "str",
	},
	dynamic:         "Any",
	dynamicImp:      "typing.Any",
	array:           func(elem string) string { return "list[" + elem + "]" },
	mapOf:           func(key, value string) string { return fmt.Sprintf("dict[%s, %s]", key, value) },
	nullable:        func(base string) string { return base + " | None" },
	union:           func(members []string) string { return strings.Join(members, " | ") },
	object:          "dict[str, Any]",
	objectImp:       "typing.Any",
	unwrapSingleMap: true,
	reserved:        pyReserved,
}

const pyClassTemplate = `# Code generated by sdkgen. DO NOT EDIT.

from __future__ import annotations
{{if .Imports}}
{{range .Imports}}{{.}}
{{end}}{{end}}
from .remote import Remote
{{range .Types}}

{{.}}{{end}}


class {{.Name}}:
{{- if .Doc}}
    """
{{range .Doc}}    {{.}}
{{end}}    """
{{- end}}

    remote = Remote({{.BaseURL}})
{{range .Methods}}
    @classmethod
    {{if .Async}}async {{end}}def {{.Name}}({{.Signature}}) -> {{.Return}}:
{{- if .Doc}}
        """
{{range .Doc}}        {{.}}
{{end}}        """
{{- end}}
        {{if .Void}}{{if .Async}}await {{end}}cls.remote.{{if .Async}}call_async{{else}}call{{end}}({{.RPCName}}, [{{.Args}}]){{else}}return {{.Decode}}{{end}}
{{end}}`

func (e *PythonEmitter) style(types *TypeRegistry) methodStyle {
	return methodStyle{
		table:      pyTypes,
		methodName: func(name string) string { return escapeReserved(toSnakeCase(name), pyReserved) },
		paramName:  func(name string) string { return escapeReserved(toSnakeCase(name), pyReserved) },
		quote:      quote,
		defaults: func(def *ir.DefaultValue, typ ir.Node) (string, bool) {
			kind, ok := primitiveKind(typ, types)
			if !ok {
				return "", false
			}
			return literalDefault(def, kind, "True", "False", quote)
		},
		signature: func(params []paramView) string {
			decls := []string{"cls"}
			for _, p := range params {
				switch {
				case p.Optional && p.Default != "":
					decls = append(decls, p.Name+": "+p.Base+" = "+p.Default)
				case p.Optional:
					decls = append(decls, p.Name+": "+p.Type+" = None")
				default:
					decls = append(decls, p.Name+": "+p.Type)
				}
			}
			return strings.Join(decls, ", ")
		},
	}
}

// EmitClass renders the client module and the declarations it needs
func (e *PythonEmitter) EmitClass(class *ir.Class, methods []*ir.Method, opts Options) (*Rendered, error) {
	types := opts.registry()
	sc := newScope(types)

	view := classView{
		Name:    clientName(sanitizeIdentifier(class.Name), types, nil),
		Doc:     commentLines(class.Doc),
		BaseURL: quote(BaseURLSentinel),
		Methods: buildMethods(class, methods, e.style(types), sc),
	}

	for i, m := range methods {
		call := "cls.remote.call"
		if m.Async() {
			call = "await cls.remote.call_async"
		}
		expr := fmt.Sprintf("%s(%s, [%s])", call, view.Methods[i].RPCName, view.Methods[i].Args)
		view.Methods[i].Decode, _ = pyResult(m.Result(), expr, types, 0)
	}

	for _, decl := range closureOf(methods, types) {
		view.Types = append(view.Types, pyDeclaration(decl, sc))
	}
	view.Imports = pyImports(sc.Imports())

	out, err := render("python", pyClassTemplate, nil, view)
	if err != nil {
		return nil, err
	}
	return rendered(out, sc), nil
}

// pyResult wraps expr, a decoded JSON value of type n, so the caller gets
// what the annotation promises: enum members instead of their values and
// integers narrowed from wire floats, also inside lists and dicts. It
// reports false when the wire value needs no conversion. Struct fields stay
// wire values; TypedDicts are plain dicts.
func pyResult(n ir.Node, expr string, types *TypeRegistry, depth int) (string, bool) {
	if depth > 8 {
		return expr, false
	}

	switch t := n.(type) {
	case *ir.Primitive:
		if t.Type == ir.KindInteger {
			return "int(" + expr + ")", true
		}
	case *ir.TypeAlias:
		return pyResult(t.Target, expr, types, depth+1)
	case *ir.Promise:
		return pyResult(t.Inner, expr, types, depth+1)
	case *ir.CustomRef:
		if alias, ok := types.Alias(t.Name); ok {
			return pyResult(alias.Target, expr, types, depth+1)
		}
		if decl, ok := types.Lookup(t.Name); ok {
			if _, isEnum := decl.(*ir.Enum); isEnum {
				return t.Name + "(" + expr + ")", true
			}
		}
	case *ir.Array:
		v := fmt.Sprintf("v%d", depth)
		if elem, ok := pyResult(t.Element, v, types, depth+1); ok {
			return fmt.Sprintf("[%s for %s in %s]", elem, v, expr), true
		}
	case *ir.TypeLiteral:
		if m, ok := t.SingleMap(); ok {
			return pyResult(m, expr, types, depth)
		}
	case *ir.Map:
		k, v := fmt.Sprintf("k%d", depth), fmt.Sprintf("v%d", depth)
		key, keyOK := pyKey(t.Key, k, types)
		value, valueOK := pyResult(t.Value, v, types, depth+1)
		if keyOK || valueOK {
			return fmt.Sprintf("{%s: %s for %s, %s in (%s).items()}", key, value, k, v, expr), true
		}
	}
	return expr, false
}

// pyKey converts a JSON object key, always a string on the wire, to a
// numeric key type.
func pyKey(n ir.Node, key string, types *TypeRegistry) (string, bool) {
	kind, _ := primitiveKind(n, types)
	switch kind {
	case ir.KindInteger:
		return "int(" + key + ")", true
	case ir.KindDouble:
		return "float(" + key + ")", true
	}
	return key, false
}

// pyImports groups dotted names into "from module import a, b" lines.
func pyImports(names []string) []string {
	byModule := make(map[string][]string)
	for _, name := range names {
		dot := strings.LastIndex(name, ".")
		if dot < 0 {
			continue
		}
		mod := name[:dot]
		byModule[mod] = append(byModule[mod], name[dot+1:])
	}

	modules := make([]string, 0, len(byModule))
	for mod := range byModule {
		modules = append(modules, mod)
	}
	sort.Strings(modules)

	lines := make([]string, 0, len(modules))
	for _, mod := range modules {
		sort.Strings(byModule[mod])
		lines = append(lines, fmt.Sprintf("from %s import %s", mod, strings.Join(byModule[mod], ", ")))
	}
	return lines
}

func pyDocstring(doc, indent string) string {
	lines := commentLines(doc)
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(indent + `"""` + "\n")
	for _, line := range lines {
		sb.WriteString(indent + line + "\n")
	}
	sb.WriteString(indent + `"""` + "\n")
	return sb.String()
}

// pyDeclaration renders a struct as a TypedDict and an enum as an Enum
// subclass. Structs whose keys are not identifiers use the functional
// TypedDict form with string forward references.
func pyDeclaration(decl ir.Node, sc *scope) string {
	var sb strings.Builder

	switch d := decl.(type) {
	case *ir.Struct:
		sc.use("typing.TypedDict")
		fields := d.Fields()

		functional := false
		for _, f := range fields {
			if !isIdentifier(f.Name) || pyReserved[f.Name] || strings.Contains(f.Name, "$") {
				functional = true
				break
			}
		}

		typeOf := func(f *ir.Property) string {
			typ := pyTypes.project(f.Type, sc)
			if f.Optional {
				sc.use("typing.NotRequired")
				typ = "NotRequired[" + typ + "]"
			}
			return typ
		}

		if functional {
			parts := make([]string, 0, len(fields))
			for _, f := range fields {
				parts = append(parts, quote(f.Name)+": "+quote(typeOf(f)))
			}
			sb.WriteString(fmt.Sprintf("%s = TypedDict(%s, {%s})\n", d.Name, quote(d.Name), strings.Join(parts, ", ")))
			return sb.String()
		}

		sb.WriteString(fmt.Sprintf("class %s(TypedDict):\n", d.Name))
		doc := pyDocstring(d.Doc, "    ")
		sb.WriteString(doc)
		if doc != "" && len(fields) > 0 {
			sb.WriteString("\n")
		}
		for _, f := range fields {
			sb.WriteString(fmt.Sprintf("    %s: %s\n", f.Name, typeOf(f)))
		}
		if doc == "" && len(fields) == 0 {
			sb.WriteString("    pass\n")
		}

	case *ir.Enum:
		sc.use("enum.Enum")
		sb.WriteString(fmt.Sprintf("class %s(Enum):\n", d.Name))
		for _, c := range d.Cases {
			sb.WriteString(fmt.Sprintf("    %s = %s\n", escapeReserved(c.Name, pyReserved), enumLiteral(c.Value, quote)))
		}
		if len(d.Cases) == 0 {
			sb.WriteString("    pass\n")
		}
	}

	return sb.String()
}
