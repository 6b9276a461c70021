package emitter

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

//go:embed runtime/Remote.kt
var ktRuntime string

// DefaultKotlinPackage is used when no package name is given.
const DefaultKotlinPackage = "sdk"

// KotlinEmitter generates Kotlin objects plus a Models.kt with data classes
type KotlinEmitter struct{}

func (e *KotlinEmitter) Language() Language     { return Kotlin }
func (e *KotlinEmitter) Static() bool           { return true }
func (e *KotlinEmitter) ModelsFileName() string { return "Models.kt" }

// FileName returns "<Pascal>.kt"
func (e *KotlinEmitter) FileName(className string) string {
	return upperFirst(sanitizeIdentifier(className)) + ".kt"
}

func (e *KotlinEmitter) Runtime(opts Options) []File {
	return []File{{Path: "Remote.kt", Content: "package " + ktPackage(opts) + "\n\n" + ktRuntime}}
}

// ktPackage returns a dotted package name made of valid segments.
func ktPackage(opts Options) string {
	if opts.PackageName == "" {
		return DefaultKotlinPackage
	}
	parts := strings.FieldsFunc(opts.PackageName, func(r rune) bool { return r == '.' || r == '/' })
	for i, p := range parts {
		parts[i] = escapeReserved(strings.ToLower(strings.ReplaceAll(p, "-", "_")), ktReserved)
	}
	if len(parts) == 0 {
		return DefaultKotlinPackage
	}
	return strings.Join(parts, ".")
}

func ktName(name string) string {
	return escapeReserved(lowerFirst(sanitizeIdentifier(name)), ktReserved)
}

var ktTypes = &typeTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "String",
		ir.KindInteger: "Int",
		ir.KindDouble:  "Double",
		ir.KindBoolean: "Boolean",
		ir.KindAny:     "Any?",
		ir.KindVoid:    "Unit",
		ir.KindDate:    "Instant",
	},
	imports: map[ir.NodeKind]string{
		ir.KindDate: "java.time.Instant",
	},
	dynamic: "Any?",
	array:   func(elem string) string { return "List<" + elem + ">" },
	mapOf:   func(key, value string) string { return fmt.Sprintf("Map<%s, %s>", key, value) },
	nullable: func(base string) string {
		if strings.HasSuffix(base, "?") {
			return base
		}
		return base + "?"
	},
	object:          "Map<String, Any?>",
	unwrapSingleMap: true,
	reserved:        ktReserved,
}

var ktDecoders = &decoderTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "Remote.string(%s)",
		ir.KindInteger: "Remote.int(%s)",
		ir.KindDouble:  "Remote.double(%s)",
		ir.KindBoolean: "Remote.bool(%s)",
		ir.KindDate:    "Remote.instant(%s)",
	},
	dynamic: "Remote.any(%s)",
	array: func(raw, elemType, elemVar, elemExpr string) string {
		return fmt.Sprintf("Remote.list(%s) { %s -> %s }", raw, elemVar, elemExpr)
	},
	mapOf: func(raw, keyType, keyVar, keyExpr, valueType, valueVar, valueExpr string) string {
		return fmt.Sprintf("Remote.map(%s, { %s -> %s }) { %s -> %s }", raw, keyVar, keyExpr, valueVar, valueExpr)
	},
	mapKey: func(keyVar string) string { return "JsonPrimitive(" + keyVar + ")" },
	fieldRaw: func(name string) string {
		return "m[" + quoteInterpolated(name) + "]"
	},
	nullable: func(raw, baseType, elemVar, expr string) string {
		return fmt.Sprintf("Remote.nullable(%s) { %s -> %s }", raw, elemVar, expr)
	},
	named:  func(raw, name string) string { return fmt.Sprintf("%s.fromJson(%s)", name, raw) },
	object: "Remote.obj(%s)",
}

const ktClassTemplate = `// Code generated by sdkgen. DO NOT EDIT.
package {{.Package}}
{{if .Imports}}
{{range .Imports}}import {{.}}
{{end}}{{end}}
{{if .Doc}}/**
{{range .Doc}} * {{.}}
{{end}} */
{{end}}object {{.Name}} {
    private val remote = Remote({{.BaseURL}})
{{range .Methods}}
{{if .Doc}}    /**
{{range .Doc}}     * {{.}}
{{end}}     */
{{end}}    {{if .Async}}suspend {{end}}fun {{.Name}}({{.Signature}}){{if not .Void}}: {{.Return}}{{end}} {
        {{if .Void}}remote.{{if .Async}}callAsync{{else}}call{{end}}({{.RPCName}}, listOf({{.Args}})){{else}}val raw = remote.{{if .Async}}callAsync{{else}}call{{end}}({{.RPCName}}, listOf({{.Args}}))
        return {{.Decode}}{{end}}
    }
{{end}}}
`

func (e *KotlinEmitter) style(types *TypeRegistry) methodStyle {
	return methodStyle{
		table:      ktTypes,
		decoder:    ktDecoders,
		methodName: ktName,
		paramName:  ktName,
		quote:      quoteInterpolated,
		defaults: func(def *ir.DefaultValue, typ ir.Node) (string, bool) {
			kind, ok := primitiveKind(typ, types)
			if !ok {
				return "", false
			}
			return literalDefault(def, kind, "true", "false", quoteInterpolated)
		},
		signature: func(params []paramView) string {
			return joinDecls(params, func(p paramView) string {
				switch {
				case p.Optional && p.Default != "":
					return p.Name + ": " + p.Base + " = " + p.Default
				case p.Optional:
					return p.Name + ": " + p.Type + " = null"
				default:
					return p.Name + ": " + p.Type
				}
			})
		},
	}
}

// EmitClass renders the client object with one function per exposed method
func (e *KotlinEmitter) EmitClass(class *ir.Class, methods []*ir.Method, opts Options) (*Rendered, error) {
	types := opts.registry()
	sc := newScope(types)

	view := classView{
		Package: ktPackage(opts),
		Name:    clientName(upperFirst(sanitizeIdentifier(class.Name)), types, nil),
		Doc:     commentLines(class.Doc),
		BaseURL: quoteInterpolated(BaseURLSentinel),
		Methods: buildMethods(class, methods, e.style(types), sc),
	}
	for _, m := range view.Methods {
		if strings.Contains(m.Decode, "JsonPrimitive(") {
			sc.use("kotlinx.serialization.json.JsonPrimitive")
		}
	}
	view.Imports = sc.Imports()

	out, err := render("kotlin", ktClassTemplate, nil, view)
	if err != nil {
		return nil, err
	}
	return rendered(out, sc), nil
}

// EmitModels renders data classes and enum classes with fromJson/toJson
func (e *KotlinEmitter) EmitModels(decls []ir.Node, opts Options) (*Rendered, error) {
	sc := newScope(opts.registry())

	var body strings.Builder
	for _, decl := range decls {
		switch d := decl.(type) {
		case *ir.Struct:
			ktStruct(&body, d, sc)
		case *ir.Enum:
			ktEnum(&body, d)
		}
	}

	sc.use("kotlinx.serialization.json.JsonElement")
	sc.use("kotlinx.serialization.json.JsonPrimitive")
	sc.use("kotlinx.serialization.json.buildJsonObject")

	var sb strings.Builder
	sb.WriteString("// Code generated by sdkgen. DO NOT EDIT.\n")
	sb.WriteString("package " + ktPackage(opts) + "\n\n")
	for _, imp := range sc.Imports() {
		sb.WriteString("import " + imp + "\n")
	}
	sb.WriteString(body.String())

	return rendered(sb.String(), sc), nil
}

func ktDoc(sb *strings.Builder, doc, indent string) {
	lines := commentLines(doc)
	if len(lines) == 0 {
		return
	}
	sb.WriteString(indent + "/**\n")
	for _, line := range lines {
		sb.WriteString(indent + " * " + line + "\n")
	}
	sb.WriteString(indent + " */\n")
}

// ktStruct renders a data class. Kotlin rejects data classes without
// properties, so an empty struct becomes a plain class.
func ktStruct(sb *strings.Builder, s *ir.Struct, sc *scope) {
	fields := s.Fields()

	sb.WriteString("\n")
	ktDoc(sb, s.Doc, "")
	if len(fields) == 0 {
		sb.WriteString(fmt.Sprintf("class %s : Remote.Encodable {\n", s.Name))
		sb.WriteString("    override fun toJson(): JsonElement = buildJsonObject {}\n\n")
		sb.WriteString("    override fun equals(other: Any?): Boolean = other is " + s.Name + "\n\n")
		sb.WriteString("    override fun hashCode(): Int = 0\n\n")
		sb.WriteString("    companion object {\n")
		sb.WriteString(fmt.Sprintf("        fun fromJson(raw: JsonElement?): %s {\n", s.Name))
		sb.WriteString("            Remote.fields(raw)\n")
		sb.WriteString(fmt.Sprintf("            return %s()\n", s.Name))
		sb.WriteString("        }\n    }\n}\n")
		return
	}

	sb.WriteString(fmt.Sprintf("data class %s(\n", s.Name))
	for _, f := range fields {
		typ := ktTypes.project(f.Type, sc)
		if f.Optional {
			sb.WriteString(fmt.Sprintf("    val %s: %s = null,\n", ktName(f.Name), ktTypes.optional(typ)))
		} else {
			sb.WriteString(fmt.Sprintf("    val %s: %s,\n", ktName(f.Name), typ))
		}
	}
	sb.WriteString(") : Remote.Encodable {\n")
	sb.WriteString("    override fun toJson(): JsonElement = buildJsonObject {\n")
	for _, f := range fields {
		name := ktName(f.Name)
		put := fmt.Sprintf("put(%s, Remote.encode(%s))", quoteInterpolated(f.Name), name)
		if f.Optional {
			sb.WriteString(fmt.Sprintf("        if (%s != null) %s\n", name, put))
		} else {
			sb.WriteString("        " + put + "\n")
		}
	}
	sb.WriteString("    }\n\n")

	sb.WriteString("    companion object {\n")
	sb.WriteString(fmt.Sprintf("        fun fromJson(raw: JsonElement?): %s {\n", s.Name))
	sb.WriteString("            val m = Remote.fields(raw)\n")
	sb.WriteString(fmt.Sprintf("            return %s(\n", s.Name))
	for _, p := range fields {
		f := ktTypes.decodeField(p, ktDecoders, sc, 1)
		sb.WriteString(fmt.Sprintf("                %s = %s,\n", ktName(p.Name), f.Expr))
	}
	sb.WriteString("            )\n        }\n    }\n}\n")
}

func ktEnum(sb *strings.Builder, e *ir.Enum) {
	base, decoder := "String", "Remote.string"
	if e.Numeric() {
		base, decoder = "Int", "Remote.int"
		for _, c := range e.Cases {
			if f, ok := c.Value.(float64); ok && f != float64(int64(f)) {
				base, decoder = "Double", "Remote.double"
				break
			}
		}
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("enum class %s(val value: %s) : Remote.Encodable {\n", e.Name, base))
	for i, c := range e.Cases {
		value := enumLiteral(c.Value, quoteInterpolated)
		if base == "Double" && !strings.ContainsAny(value, ".eE") {
			value += ".0"
		}
		sep := ","
		if i == len(e.Cases)-1 {
			sep = ";"
		}
		sb.WriteString(fmt.Sprintf("    %s(%s)%s\n", escapeReserved(c.Name, ktReserved), value, sep))
	}
	if len(e.Cases) == 0 {
		sb.WriteString("    ;\n")
	}
	sb.WriteString("\n    override fun toJson(): JsonElement = JsonPrimitive(value)\n\n")
	sb.WriteString("    companion object {\n")
	sb.WriteString(fmt.Sprintf("        fun fromJson(raw: JsonElement?): %s {\n", e.Name))
	sb.WriteString(fmt.Sprintf("            val v = %s(raw)\n", decoder))
	sb.WriteString("            return values().firstOrNull { it.value == v }\n")
	sb.WriteString(fmt.Sprintf("                ?: throw RemoteException(-32602, %s + v, null)\n", quoteInterpolated("unknown "+e.Name+" value: ")))
	sb.WriteString("        }\n    }\n}\n")
}
