package emitter

import (
	"fmt"
	"go/format"
	"path"
	"strings"

	"github.com/QTest-hq/sdkgen/pkg/ir"
	"github.com/QTest-hq/sdkgen/pkg/remote"
)

// DefaultGoModule is the module path used when no package name is given.
const DefaultGoModule = "sdk"

// GoEmitter generates Go clients plus a models.go with typed decoders
type GoEmitter struct{}

func (e *GoEmitter) Language() Language     { return Go }
func (e *GoEmitter) Static() bool           { return true }
func (e *GoEmitter) ModelsFileName() string { return "models.go" }

// FileName returns "<snake>.go"
func (e *GoEmitter) FileName(className string) string {
	return toSnakeCase(sanitizeIdentifier(className)) + ".go"
}

// Runtime ships the remote package source as remote/remote.go
func (e *GoEmitter) Runtime(opts Options) []File {
	return []File{{Path: "remote/remote.go", Content: remote.Source}}
}

// goModule returns the Go module path of the SDK.
func goModule(opts Options) string {
	if opts.PackageName == "" {
		return DefaultGoModule
	}
	return opts.PackageName
}

// goPackage derives the package clause from the last module path element.
func goPackage(opts Options) string {
	base := path.Base(goModule(opts))
	var sb strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') || goReserved[name] {
		return "sdk"
	}
	return name
}

func goFieldName(name string) string {
	n := toPascalCase(sanitizeIdentifier(name))
	if n == "" || n == "_" {
		return "X"
	}
	if n[0] == '_' {
		n = "X" + n
	}
	return n
}

// goPointerable reports whether an optional value of typ needs a pointer to
// tell absent from zero.
func goPointerable(typ string) bool {
	return !strings.HasPrefix(typ, "[]") && !strings.HasPrefix(typ, "map[") &&
		!strings.HasPrefix(typ, "*") && typ != "any"
}

var goTypes = &typeTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "string",
		ir.KindInteger: "int",
		ir.KindDouble:  "float64",
		ir.KindBoolean: "bool",
		ir.KindAny:     "any",
		ir.KindVoid:    "any",
		ir.KindDate:    "time.Time",
	},
	imports: map[ir.NodeKind]string{
		ir.KindDate: "time",
	},
	dynamic: "any",
	array:   func(elem string) string { return "[]" + elem },
	mapOf:   func(key, value string) string { return "map[" + key + "]" + value },
	nullable: func(base string) string {
		if goPointerable(base) {
			return "*" + base
		}
		return base
	},
	literal: func(fields []fieldType) string {
		if len(fields) == 0 {
			return "struct{}"
		}
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, goStructField(f.Name, f.Type, f.Optional))
		}
		return "struct { " + strings.Join(parts, "; ") + " }"
	},
	unwrapSingleMap: true,
	reserved:        goReserved,
}

func goStructField(name, typ string, optional bool) string {
	tag := name
	if optional {
		tag += ",omitempty"
		if goPointerable(typ) {
			typ = "*" + typ
		}
	}
	return fmt.Sprintf("%s %s `json:%s`", goFieldName(name), typ, quote(tag))
}

// goDecoders produce expressions of two values, the decoded value and an
// error, so they nest inside closures of the remote helpers.
var goDecoders = &decoderTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "remote.String(%s)",
		ir.KindInteger: "remote.Int(%s)",
		ir.KindDouble:  "remote.Float(%s)",
		ir.KindBoolean: "remote.Bool(%s)",
		ir.KindDate:    "remote.Time(%s)",
	},
	dynamic: "%s, nil",
	array: func(raw, elemType, elemVar, elemExpr string) string {
		return fmt.Sprintf("remote.Slice(%s, func(%s any) (%s, error) { return %s })", raw, elemVar, elemType, elemExpr)
	},
	mapOf: func(raw, keyType, keyVar, keyExpr, valueType, valueVar, valueExpr string) string {
		return fmt.Sprintf("remote.Map(%s, func(%s string) (%s, error) { return %s }, func(%s any) (%s, error) { return %s })",
			raw, keyVar, keyType, keyExpr, valueVar, valueType, valueExpr)
	},
	mapKey: func(keyVar string) string { return keyVar },
	nullable: func(raw, baseType, elemVar, expr string) string {
		if !goPointerable(baseType) {
			return ""
		}
		return fmt.Sprintf("remote.Ptr(%s, func(%s any) (%s, error) { return %s })", raw, elemVar, baseType, expr)
	},
	named: func(raw, name string) string { return fmt.Sprintf("Decode%s(%s)", name, raw) },
	literal: func(raw, typ string, fields []decodedField) string {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("func() (%s, error) {\n", typ))
		sb.WriteString(fmt.Sprintf("var out %s\n", typ))
		if len(fields) == 0 {
			sb.WriteString(fmt.Sprintf("_, err := remote.Object(%s)\n", raw))
		} else {
			sb.WriteString(fmt.Sprintf("m, err := remote.Object(%s)\n", raw))
		}
		sb.WriteString("if err != nil {\nreturn out, err\n}\n")
		for _, f := range fields {
			sb.WriteString(fmt.Sprintf("if out.%s, err = %s; err != nil {\nreturn out, err\n}\n", goFieldName(f.Name), f.Expr))
		}
		sb.WriteString("return out, nil\n}()")
		return sb.String()
	},
}

// goArg is one positional argument of a call.
type goArg struct {
	Name    string
	Ptr     bool
	Default string
}

type goMethodView struct {
	methodView
	Args       []goArg
	HasPtrArgs bool
}

type goClassView struct {
	classView
	RemoteImport string
	GoMethods    []goMethodView
}

const goClassTemplate = `// Code generated by sdkgen. DO NOT EDIT.

package {{.Package}}

import (
	"context"
{{range .Imports}}	"{{.}}"
{{end}}
	"{{.RemoteImport}}"
)

// {{.Name}} is the client of the {{.Name}} backend class.
{{- if .Doc}}
//
{{- range .Doc}}
// {{.}}
{{- end}}
{{- end}}
type {{.Name}} struct {
	remote *remote.Client
}

// New{{.Name}} returns a client of the deployed {{.Name}} class.
func New{{.Name}}(opts ...remote.Option) *{{.Name}} {
	return &{{.Name}}{remote: remote.New({{.BaseURL}}, opts...)}
}
{{range .GoMethods}}
// {{.Name}} calls {{.RPCName}}.
{{- if .Doc}}
//
{{- range .Doc}}
// {{.}}
{{- end}}
{{- end}}
func (c *{{$.Name}}) {{.Name}}({{.Signature}}) {{if .Void}}error{{else}}({{.Return}}, error){{end}} {
{{- if .HasPtrArgs}}
	args := make([]any, 0, {{len .Args}})
{{- range .Args}}
{{- if .Ptr}}
	if {{.Name}} != nil {
		args = append(args, *{{.Name}})
	} else {
		args = append(args, {{.Default}})
	}
{{- else}}
	args = append(args, {{.Name}})
{{- end}}
{{- end}}
{{- end}}
	{{if .Void}}_{{else}}raw{{end}}, err := c.remote.Call(ctx, {{.RPCName}}{{if .HasPtrArgs}}, args...{{else}}{{range .Args}}, {{.Name}}{{end}}{{end}})
{{- if .Void}}
	return err
{{- else}}
	if err != nil {
		var zero {{.Return}}
		return zero, err
	}
	return {{.Decode}}
{{- end}}
}
{{end}}`

func (e *GoEmitter) style(types *TypeRegistry) methodStyle {
	return methodStyle{
		table:      goTypes,
		decoder:    goDecoders,
		methodName: func(name string) string { return upperFirst(sanitizeIdentifier(name)) },
		paramName:  func(name string) string { return escapeReserved(name, goReserved) },
		quote:      quote,
		defaults: func(def *ir.DefaultValue, typ ir.Node) (string, bool) {
			kind, ok := primitiveKind(typ, types)
			if !ok {
				return "", false
			}
			return literalDefault(def, kind, "true", "false", quote)
		},
	}
}

// EmitClass renders the client struct with one method per exposed method
func (e *GoEmitter) EmitClass(class *ir.Class, methods []*ir.Method, opts Options) (*Rendered, error) {
	types := opts.registry()
	sc := newScope(types)

	models := goModelNames(types)
	name := clientName(upperFirst(sanitizeIdentifier(class.Name)), types, func(n string) bool {
		return models[n] || models["New"+n]
	})
	view := goClassView{
		classView: classView{
			Package: goPackage(opts),
			Name:    name,
			Doc:     commentLines(class.Doc),
			BaseURL: quote(BaseURLSentinel),
			Methods: buildMethods(class, methods, e.style(types), sc),
		},
		RemoteImport: goModule(opts) + "/remote",
	}

	for _, m := range view.Methods {
		gm := goMethodView{methodView: m}
		decls := []string{"ctx context.Context"}
		for _, p := range m.Params {
			typ := p.Type
			if p.Optional || p.Nullable {
				typ = goTypes.optional(p.Base)
			}
			arg := goArg{Name: p.Name, Default: "nil"}
			if strings.HasPrefix(typ, "*") && typ != p.Base {
				arg.Ptr = true
				gm.HasPtrArgs = true
				if p.Default != "" {
					arg.Default = p.Default
				}
			}
			gm.Args = append(gm.Args, arg)
			decls = append(decls, p.Name+" "+typ)
		}
		gm.Signature = strings.Join(decls, ", ")
		view.GoMethods = append(view.GoMethods, gm)
	}
	view.Imports = sc.Imports()

	out, err := render("go", goClassTemplate, nil, view)
	if err != nil {
		return nil, err
	}
	src, err := format.Source([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", class.Name, err)
	}
	return rendered(string(src), sc), nil
}

// EmitModels renders every struct and enum with its Decode function
func (e *GoEmitter) EmitModels(decls []ir.Node, opts Options) (*Rendered, error) {
	sc := newScope(opts.registry())

	var body strings.Builder
	hasStruct := false
	for _, decl := range decls {
		switch d := decl.(type) {
		case *ir.Struct:
			hasStruct = true
			goStruct(&body, d, sc)
		case *ir.Enum:
			goEnum(&body, d)
		}
	}

	var sb strings.Builder
	sb.WriteString("// Code generated by sdkgen. DO NOT EDIT.\n\n")
	sb.WriteString(fmt.Sprintf("package %s\n\n", goPackage(opts)))
	sb.WriteString("import (\n")
	if hasStruct {
		sb.WriteString("\t\"fmt\"\n")
	}
	for _, imp := range sc.Imports() {
		sb.WriteString(fmt.Sprintf("\t%q\n", imp))
	}
	sb.WriteString(fmt.Sprintf("\n\t%q\n)\n", goModule(opts)+"/remote"))
	sb.WriteString(body.String())

	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("format models: %w", err)
	}
	return rendered(string(src), sc), nil
}

// goModelNames returns the package-level identifiers models.go declares:
// the types, their Decode functions and the enum constants.
func goModelNames(types *TypeRegistry) map[string]bool {
	names := make(map[string]bool)
	for _, decl := range types.Decls() {
		switch d := decl.(type) {
		case *ir.Struct:
			names[d.Name] = true
			names["Decode"+d.Name] = true
		case *ir.Enum:
			names[d.Name] = true
			names["Decode"+d.Name] = true
			for _, c := range d.Cases {
				names[d.Name+goFieldName(c.Name)] = true
			}
		}
	}
	return names
}

func goComment(sb *strings.Builder, first, doc string) {
	sb.WriteString("// " + first + "\n")
	if lines := commentLines(doc); len(lines) > 0 {
		sb.WriteString("//\n")
		for _, line := range lines {
			sb.WriteString("// " + line + "\n")
		}
	}
}

func goStruct(sb *strings.Builder, s *ir.Struct, sc *scope) {
	fields := s.Fields()

	sb.WriteString("\n")
	goComment(sb, fmt.Sprintf("%s is a value exchanged with the backend.", s.Name), s.Doc)
	sb.WriteString(fmt.Sprintf("type %s struct {\n", s.Name))
	for _, f := range fields {
		sb.WriteString("\t" + goStructField(f.Name, goTypes.project(f.Type, sc), f.Optional) + "\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString(fmt.Sprintf("// Decode%s converts a decoded JSON value into %s.\n", s.Name, s.Name))
	sb.WriteString(fmt.Sprintf("func Decode%s(raw any) (%s, error) {\n", s.Name, s.Name))
	sb.WriteString(fmt.Sprintf("\tvar out %s\n", s.Name))
	if len(fields) == 0 {
		sb.WriteString("\t_, err := remote.Object(raw)\n")
	} else {
		sb.WriteString("\tm, err := remote.Object(raw)\n")
	}
	sb.WriteString(fmt.Sprintf("\tif err != nil {\n\t\treturn out, fmt.Errorf(%s, err)\n\t}\n", quote(s.Name+": %w")))
	for _, p := range fields {
		f := goTypes.decodeField(p, goDecoders, sc, 1)
		sb.WriteString(fmt.Sprintf("\tif out.%s, err = %s; err != nil {\n", goFieldName(p.Name), f.Expr))
		sb.WriteString(fmt.Sprintf("\t\treturn out, fmt.Errorf(%s, err)\n\t}\n", quote(s.Name+"."+p.Name+": %w")))
	}
	sb.WriteString("\treturn out, nil\n}\n")
}

// goEnumBase picks the underlying type and decoder of an enum: int when
// every value is integral, float64 for other numbers, string otherwise.
func goEnumBase(e *ir.Enum) (string, string) {
	if !e.Numeric() {
		return "string", "remote.String"
	}
	for _, c := range e.Cases {
		if f, ok := c.Value.(float64); ok && f != float64(int64(f)) {
			return "float64", "remote.Float"
		}
	}
	return "int", "remote.Int"
}

func goEnum(sb *strings.Builder, e *ir.Enum) {
	base, decoder := goEnumBase(e)

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("// %s is an enumeration of the backend.\n", e.Name))
	sb.WriteString(fmt.Sprintf("type %s %s\n\n", e.Name, base))
	if len(e.Cases) > 0 {
		sb.WriteString("const (\n")
		for _, c := range e.Cases {
			value := enumLiteral(c.Value, quote)
			sb.WriteString(fmt.Sprintf("\t%s%s %s = %s\n", e.Name, goFieldName(c.Name), e.Name, value))
		}
		sb.WriteString(")\n\n")
	}
	sb.WriteString(fmt.Sprintf("// Decode%s converts a decoded JSON value into %s.\n", e.Name, e.Name))
	sb.WriteString(fmt.Sprintf("func Decode%s(raw any) (%s, error) {\n", e.Name, e.Name))
	sb.WriteString(fmt.Sprintf("\tv, err := %s(raw)\n", decoder))
	sb.WriteString(fmt.Sprintf("\treturn %s(v), err\n}\n", e.Name))
}
