package emitter

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

//go:embed runtime/remote.js
var jsRuntime string

// JavaScriptEmitter generates ES module clients typed with JSDoc
type JavaScriptEmitter struct{}

func (e *JavaScriptEmitter) Language() Language     { return JavaScript }
func (e *JavaScriptEmitter) Static() bool           { return false }
func (e *JavaScriptEmitter) ModelsFileName() string { return "" }

// FileName returns "<lowerCamel>.sdk.js"
func (e *JavaScriptEmitter) FileName(className string) string {
	return lowerFirst(sanitizeIdentifier(className)) + ".sdk.js"
}

func (e *JavaScriptEmitter) Runtime(opts Options) []File {
	return []File{{Path: "remote.js", Content: jsRuntime}}
}

// EmitModels is a no-op: typedefs are declared in each class file.
func (e *JavaScriptEmitter) EmitModels(decls []ir.Node, opts Options) (*Rendered, error) {
	return nil, nil
}

// JSDoc type expressions. Unions use the parenthesised "(A|B)" form closure
// compiler and tsc both read.
var jsTypes = &typeTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "string",
		ir.KindInteger: "number",
		ir.KindDouble:  "number",
		ir.KindBoolean: "boolean",
		ir.KindAny:     "*",
		ir.KindVoid:    "void",
		ir.KindDate:    "string",
	},
	dynamic:  "*",
	array:    func(elem string) string { return "Array<" + elem + ">" },
	mapOf:    func(key, value string) string { return fmt.Sprintf("Object<%s, %s>", key, value) },
	nullable: func(base string) string { return "(" + base + "|undefined)" },
	union:    func(members []string) string { return "(" + strings.Join(members, "|") + ")" },
	literal: func(fields []fieldType) string {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			typ := f.Type
			if f.Optional {
				typ = "(" + typ + "|undefined)"
			}
			parts = append(parts, tsPropertyName(f.Name)+": "+typ)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	},
	unwrapSingleMap: true,
	reserved:        tsReserved,
}

const jsClassTemplate = `// Code generated by sdkgen. DO NOT EDIT.

import { Remote } from "./remote.js";
{{range .Types}}
{{.}}{{end}}
{{if .Doc}}/**
{{range .Doc}} * {{.}}
{{end}} */
{{end}}export class {{.Name}} {
  static remote = new Remote({{.BaseURL}});
{{range .Methods}}
  /**
{{range .Doc}}   * {{.}}
{{end}}{{range .Params}}   * @param {{"{"}}{{.Type}}{{"}"}} {{if .Optional}}[{{.Name}}{{if .Default}}={{.Default}}{{end}}]{{else}}{{.Name}}{{end}}
{{end}}   * @returns {{"{"}}Promise<{{.Return}}>{{"}"}}
   */
  static async {{.Name}}({{.Signature}}) {
    {{if .Void}}await{{else}}return await{{end}} {{$.Name}}.remote.call({{.RPCName}}, [{{.Args}}]);
  }
{{end}}}
`

func (e *JavaScriptEmitter) style(types *TypeRegistry) methodStyle {
	return methodStyle{
		table:      jsTypes,
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
				if p.Optional && p.Default != "" {
					return p.Name + " = " + p.Default
				}
				return p.Name
			})
		},
	}
}

// EmitClass renders the client class and the typedefs it needs
func (e *JavaScriptEmitter) EmitClass(class *ir.Class, methods []*ir.Method, opts Options) (*Rendered, error) {
	types := opts.registry()
	sc := newScope(types)

	view := classView{
		Name:    clientName(sanitizeIdentifier(class.Name), types, nil),
		Doc:     commentLines(class.Doc),
		BaseURL: quote(BaseURLSentinel),
		Methods: buildMethods(class, methods, e.style(types), sc),
	}
	for _, decl := range closureOf(methods, types) {
		view.Types = append(view.Types, jsDeclaration(decl, sc))
	}

	out, err := render("javascript", jsClassTemplate, nil, view)
	if err != nil {
		return nil, err
	}
	return rendered(out, sc), nil
}

// jsDocPropertyName quotes a @property name that is not an identifier.
func jsDocPropertyName(name string) string {
	if isIdentifier(name) {
		return name
	}
	return quote(strings.ReplaceAll(name, "*/", "* /"))
}

// jsDeclaration renders a struct as a @typedef and an enum as a frozen
// object tagged @enum.
func jsDeclaration(decl ir.Node, sc *scope) string {
	var sb strings.Builder

	switch d := decl.(type) {
	case *ir.Struct:
		sb.WriteString("/**\n")
		for _, line := range commentLines(d.Doc) {
			sb.WriteString(" * " + line + "\n")
		}
		sb.WriteString(fmt.Sprintf(" * @typedef {Object} %s\n", d.Name))
		for _, f := range d.Fields() {
			name := jsDocPropertyName(f.Name)
			if f.Optional {
				name = "[" + name + "]"
			}
			sb.WriteString(fmt.Sprintf(" * @property {%s} %s\n", jsTypes.project(f.Type, sc), name))
		}
		sb.WriteString(" */\n")

	case *ir.Enum:
		kind := "string"
		if d.Numeric() {
			kind = "number"
		}
		sb.WriteString(fmt.Sprintf("/**\n * @readonly\n * @enum {%s}\n */\n", kind))
		sb.WriteString(fmt.Sprintf("export const %s = Object.freeze({\n", d.Name))
		for _, c := range d.Cases {
			sb.WriteString(fmt.Sprintf("  %s: %s,\n", tsPropertyName(c.Name), enumLiteral(c.Value, quote)))
		}
		sb.WriteString("});\n")
	}

	return sb.String()
}
