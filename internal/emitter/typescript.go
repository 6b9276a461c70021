package emitter

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

//go:embed runtime/remote.ts
var tsRuntime string

// Static members every class constructor already has.
var tsStaticReserved = wordSet("name", "length", "prototype", "caller", "arguments", "constructor", "remote")

// TypeScriptEmitter generates TypeScript clients with inline type declarations
type TypeScriptEmitter struct{}

func (e *TypeScriptEmitter) Language() Language     { return TypeScript }
func (e *TypeScriptEmitter) Static() bool           { return false }
func (e *TypeScriptEmitter) ModelsFileName() string { return "" }

// FileName returns "<lowerCamel>.sdk.ts"
func (e *TypeScriptEmitter) FileName(className string) string {
	return lowerFirst(sanitizeIdentifier(className)) + ".sdk.ts"
}

func (e *TypeScriptEmitter) Runtime(opts Options) []File {
	return []File{{Path: "remote.ts", Content: tsRuntime}}
}

// EmitModels is a no-op: types are declared in each class file.
func (e *TypeScriptEmitter) EmitModels(decls []ir.Node, opts Options) (*Rendered, error) {
	return nil, nil
}

var tsTypes = &typeTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "string",
		ir.KindInteger: "number",
		ir.KindDouble:  "number",
		ir.KindBoolean: "boolean",
		ir.KindAny:     "any",
		ir.KindVoid:    "void",
		ir.KindDate:    "string",
	},
	dynamic: "any",
	array: func(elem string) string {
		if isIdentifier(elem) {
			return elem + "[]"
		}
		return "Array<" + elem + ">"
	},
	mapOf: func(key, value string) string {
		if key == "boolean" || key == "any" {
			key = "string"
		}
		return fmt.Sprintf("Record<%s, %s>", key, value)
	},
	nullable: func(base string) string { return base + " | undefined" },
	union:    func(members []string) string { return strings.Join(members, " | ") },
	literal: func(fields []fieldType) string {
		if len(fields) == 0 {
			return "{}"
		}
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, tsProperty(f.Name, f.Type, f.Optional))
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	},
	unwrapSingleMap: true,
	reserved:        tsReserved,
}

func tsPropertyName(name string) string {
	if isIdentifier(name) {
		return name
	}
	return quote(name)
}

func tsProperty(name, typ string, optional bool) string {
	if optional {
		return tsPropertyName(name) + "?: " + typ
	}
	return tsPropertyName(name) + ": " + typ
}

const tsClassTemplate = `// Code generated by sdkgen. DO NOT EDIT.

import { Remote } from "./remote";
{{range .Types}}
{{.}}{{end}}
{{if .Doc}}/**
{{range .Doc}} * {{.}}
{{end}} */
{{end}}export class {{.Name}} {
  static remote = new Remote({{.BaseURL}});
{{range .Methods}}
{{if .Doc}}  /**
{{range .Doc}}   * {{.}}
{{end}}   */
{{end}}  static async {{.Name}}({{.Signature}}): Promise<{{.Return}}> {
    {{if .Void}}await{{else}}return await{{end}} {{$.Name}}.remote.call({{.RPCName}}, [{{.Args}}]);
  }
{{end}}}
`

func (e *TypeScriptEmitter) style(types *TypeRegistry) methodStyle {
	return methodStyle{
		table:      tsTypes,
		methodName: func(name string) string { return escapeReserved(name, tsStaticReserved) },
		paramName:  func(name string) string { return escapeReserved(name, tsReserved) },
		quote:      quote,
		defaults: func(def *ir.DefaultValue, typ ir.Node) (string, bool) {
			kind, ok := primitiveKind(typ, types)
			if !ok {
				return "", false
			}
			return literalDefault(def, kind, "true", "false", quote)
		},
		signature: func(params []paramView) string {
			return joinDecls(params, func(p paramView) string {
				switch {
				case p.Optional && p.Default != "":
					return p.Name + ": " + p.Base + " = " + p.Default
				case p.Optional:
					return p.Name + "?: " + p.Base
				default:
					return p.Name + ": " + p.Type
				}
			})
		},
	}
}

// EmitClass renders the client class and the declarations it needs
func (e *TypeScriptEmitter) EmitClass(class *ir.Class, methods []*ir.Method, opts Options) (*Rendered, error) {
	types := opts.registry()
	sc := newScope(types)

	view := classView{
		Name:    clientName(sanitizeIdentifier(class.Name), types, nil),
		Doc:     commentLines(class.Doc),
		BaseURL: quote(BaseURLSentinel),
		Methods: buildMethods(class, methods, e.style(types), sc),
	}
	for _, decl := range closureOf(methods, types) {
		view.Types = append(view.Types, tsDeclaration(decl, sc))
	}

	out, err := render("typescript", tsClassTemplate, nil, view)
	if err != nil {
		return nil, err
	}
	return rendered(out, sc), nil
}

func tsDoc(doc, indent string) string {
	lines := commentLines(doc)
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(indent + "/**\n")
	for _, line := range lines {
		sb.WriteString(indent + " * " + line + "\n")
	}
	sb.WriteString(indent + " */\n")
	return sb.String()
}

// tsDeclaration renders a named struct as a type alias of an object type and
// an enum as a TypeScript enum.
func tsDeclaration(decl ir.Node, sc *scope) string {
	var sb strings.Builder

	switch d := decl.(type) {
	case *ir.Struct:
		sb.WriteString(tsDoc(d.Doc, ""))
		sb.WriteString(fmt.Sprintf("export type %s = {\n", d.Name))
		for _, f := range d.Fields() {
			sb.WriteString("  " + tsProperty(f.Name, tsTypes.project(f.Type, sc), f.Optional) + ";\n")
		}
		sb.WriteString("};\n")

	case *ir.Enum:
		sb.WriteString(fmt.Sprintf("export enum %s {\n", d.Name))
		for _, c := range d.Cases {
			sb.WriteString(fmt.Sprintf("  %s = %s,\n", tsPropertyName(c.Name), enumLiteral(c.Value, quote)))
		}
		sb.WriteString("}\n")
	}

	return sb.String()
}

// enumLiteral renders an enum case value: numbers bare, everything else as a
// string literal.
func enumLiteral(v any, quoteFn func(string) string) string {
	switch n := v.(type) {
	case float64, int, int64:
		return formatNumber(n)
	case string:
		return quoteFn(n)
	case nil:
		return quoteFn("")
	default:
		return quoteFn(fmt.Sprint(n))
	}
}
