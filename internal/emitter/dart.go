package emitter

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

//go:embed runtime/remote.dart
var dartRuntime string

// DartEmitter generates Dart clients plus a models.dart with fromJson
// factories
type DartEmitter struct{}

func (e *DartEmitter) Language() Language     { return Dart }
func (e *DartEmitter) Static() bool           { return true }
func (e *DartEmitter) ModelsFileName() string { return "models.dart" }

// FileName returns "<snake>.dart"
func (e *DartEmitter) FileName(className string) string {
	return toSnakeCase(sanitizeIdentifier(className)) + ".dart"
}

func (e *DartEmitter) Runtime(opts Options) []File {
	return []File{{Path: "remote.dart", Content: dartRuntime}}
}

func dartName(name string) string {
	return escapeReserved(lowerFirst(sanitizeIdentifier(name)), dartReserved)
}

// dartEnumCase lower-camel-cases an enum case; SCREAMING names are lowered
// first.
func dartEnumCase(name string) string {
	name = sanitizeIdentifier(name)
	if strings.ToUpper(name) == name {
		name = strings.ToLower(name)
	}
	name = toCamelCase(name)
	if name == "" {
		name = "_"
	}
	for dartReserved[name] || dartEnumReserved[name] {
		name += "_"
	}
	return name
}

var dartTypes = &typeTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "String",
		ir.KindInteger: "int",
		ir.KindDouble:  "double",
		ir.KindBoolean: "bool",
		ir.KindAny:     "dynamic",
		ir.KindVoid:    "void",
		ir.KindDate:    "DateTime",
	},
	dynamic: "dynamic",
	array:   func(elem string) string { return "List<" + elem + ">" },
	mapOf:   func(key, value string) string { return fmt.Sprintf("Map<%s, %s>", key, value) },
	nullable: func(base string) string {
		if base == "dynamic" || strings.HasSuffix(base, "?") {
			return base
		}
		return base + "?"
	},
	object:          "Map<String, dynamic>",
	unwrapSingleMap: true,
	reserved:        dartReserved,
}

var dartDecoders = &decoderTable{
	primitives: map[ir.NodeKind]string{
		ir.KindString:  "Remote.toStr(%s)",
		ir.KindInteger: "Remote.toInt(%s)",
		ir.KindDouble:  "Remote.toDouble(%s)",
		ir.KindBoolean: "Remote.toBool(%s)",
		ir.KindDate:    "Remote.toDate(%s)",
	},
	dynamic: "%s",
	array: func(raw, elemType, elemVar, elemExpr string) string {
		return fmt.Sprintf("Remote.list(%s, (%s) => %s)", raw, elemVar, elemExpr)
	},
	mapOf: func(raw, keyType, keyVar, keyExpr, valueType, valueVar, valueExpr string) string {
		return fmt.Sprintf("Remote.map(%s, (%s) => %s, (%s) => %s)", raw, keyVar, keyExpr, valueVar, valueExpr)
	},
	mapKey: func(keyVar string) string { return keyVar },
	fieldRaw: func(name string) string {
		return "m[" + quoteInterpolated(name) + "]"
	},
	nullable: func(raw, baseType, elemVar, expr string) string {
		return fmt.Sprintf("Remote.nullable(%s, (%s) => %s)", raw, elemVar, expr)
	},
	named:  func(raw, name string) string { return fmt.Sprintf("%s.fromJson(%s)", name, raw) },
	object: "Remote.object(%s)",
}

const dartClassTemplate = `// Code generated by sdkgen. DO NOT EDIT.

import 'remote.dart';
{{if .HasTypes}}import 'models.dart';
{{end}}
{{range .Doc}}/// {{.}}
{{end}}class {{.Name}} {
  static final remote = Remote({{.BaseURL}});
{{range .Methods}}
{{range .Doc}}  /// {{.}}
{{end}}  static Future<{{.Return}}> {{.Name}}({{.Signature}}) async {
    {{if .Void}}await remote.call({{.RPCName}}, [{{.Args}}]);{{else}}final raw = await remote.call({{.RPCName}}, [{{.Args}}]);
    return {{.Decode}};{{end}}
  }
{{end}}}
`

func (e *DartEmitter) style(types *TypeRegistry) methodStyle {
	return methodStyle{
		table:      dartTypes,
		decoder:    dartDecoders,
		methodName: dartName,
		paramName:  dartName,
		quote:      quoteInterpolated,
		defaults: func(def *ir.DefaultValue, typ ir.Node) (string, bool) {
			kind, ok := primitiveKind(typ, types)
			if !ok {
				return "", false
			}
			return literalDefault(def, kind, "true", "false", quoteInterpolated)
		},
		signature: func(params []paramView) string {
			var required, optional []string
			for _, p := range params {
				switch {
				case p.Optional && p.Default != "":
					optional = append(optional, p.Base+" "+p.Name+" = "+p.Default)
				case p.Optional:
					optional = append(optional, p.Type+" "+p.Name)
				default:
					required = append(required, p.Type+" "+p.Name)
				}
			}
			if len(optional) > 0 {
				required = append(required, "["+strings.Join(optional, ", ")+"]")
			}
			return strings.Join(required, ", ")
		},
	}
}

// EmitClass renders the client class with one static method per exposed
// method
func (e *DartEmitter) EmitClass(class *ir.Class, methods []*ir.Method, opts Options) (*Rendered, error) {
	types := opts.registry()
	sc := newScope(types)

	view := classView{
		Name:    clientName(upperFirst(sanitizeIdentifier(class.Name)), types, nil),
		Doc:     commentLines(class.Doc),
		BaseURL: quoteInterpolated(BaseURLSentinel),
		Methods: buildMethods(class, methods, e.style(types), sc),
	}
	view.HasTypes = len(sc.referenced) > 0

	out, err := render("dart", dartClassTemplate, nil, view)
	if err != nil {
		return nil, err
	}
	return rendered(out, sc), nil
}

// EmitModels renders classes with fromJson factories and enhanced enums
func (e *DartEmitter) EmitModels(decls []ir.Node, opts Options) (*Rendered, error) {
	sc := newScope(opts.registry())

	var sb strings.Builder
	sb.WriteString("// Code generated by sdkgen. DO NOT EDIT.\n\n")
	sb.WriteString("import 'remote.dart';\n")
	for _, decl := range decls {
		switch d := decl.(type) {
		case *ir.Struct:
			dartStruct(&sb, d, sc)
		case *ir.Enum:
			dartEnum(&sb, d)
		}
	}

	return rendered(sb.String(), sc), nil
}

func dartStruct(sb *strings.Builder, s *ir.Struct, sc *scope) {
	fields := s.Fields()

	sb.WriteString("\n")
	for _, line := range commentLines(s.Doc) {
		sb.WriteString("/// " + line + "\n")
	}
	sb.WriteString(fmt.Sprintf("class %s {\n", s.Name))

	if len(fields) == 0 {
		sb.WriteString(fmt.Sprintf("  const %s();\n\n", s.Name))
		sb.WriteString(fmt.Sprintf("  factory %s.fromJson(Object? raw) {\n", s.Name))
		sb.WriteString("    Remote.object(raw);\n")
		sb.WriteString(fmt.Sprintf("    return const %s();\n  }\n\n", s.Name))
		sb.WriteString("  Map<String, dynamic> toJson() => {};\n}\n")
		return
	}

	params := make([]string, 0, len(fields))
	for _, f := range fields {
		typ := dartTypes.project(f.Type, sc)
		name := dartName(f.Name)
		if f.Optional {
			typ = dartTypes.optional(typ)
			params = append(params, "this."+name)
		} else {
			params = append(params, "required this."+name)
		}
		sb.WriteString(fmt.Sprintf("  final %s %s;\n", typ, name))
	}
	sb.WriteString(fmt.Sprintf("\n  const %s({%s});\n\n", s.Name, strings.Join(params, ", ")))

	sb.WriteString(fmt.Sprintf("  factory %s.fromJson(Object? raw) {\n", s.Name))
	sb.WriteString("    final m = Remote.object(raw);\n")
	sb.WriteString(fmt.Sprintf("    return %s(\n", s.Name))
	for _, p := range fields {
		f := dartTypes.decodeField(p, dartDecoders, sc, 1)
		sb.WriteString(fmt.Sprintf("      %s: %s,\n", dartName(p.Name), f.Expr))
	}
	sb.WriteString("    );\n  }\n\n")

	sb.WriteString("  Map<String, dynamic> toJson() => {\n")
	for _, f := range fields {
		name := dartName(f.Name)
		if f.Optional {
			sb.WriteString(fmt.Sprintf("        if (%s != null) %s: %s,\n", name, quoteInterpolated(f.Name), name))
		} else {
			sb.WriteString(fmt.Sprintf("        %s: %s,\n", quoteInterpolated(f.Name), name))
		}
	}
	sb.WriteString("      };\n}\n")
}

// dartEnum renders an enhanced enum carrying the wire value. Dart enums need
// at least one value, so an empty one becomes a class that cannot decode.
func dartEnum(sb *strings.Builder, e *ir.Enum) {
	sb.WriteString("\n")
	if len(e.Cases) == 0 {
		sb.WriteString(fmt.Sprintf("abstract final class %s {\n", e.Name))
		sb.WriteString(fmt.Sprintf("  static Never fromJson(Object? raw) =>\n      throw RemoteError(-32602, %s, null);\n}\n", quoteInterpolated(e.Name+" has no values")))
		return
	}

	base, decoder := "String", "Remote.toStr"
	if e.Numeric() {
		base, decoder = "int", "Remote.toInt"
		for _, c := range e.Cases {
			if f, ok := c.Value.(float64); ok && f != float64(int64(f)) {
				base, decoder = "double", "Remote.toDouble"
				break
			}
		}
	}

	sb.WriteString(fmt.Sprintf("enum %s {\n", e.Name))
	for i, c := range e.Cases {
		value := enumLiteral(c.Value, quoteInterpolated)
		if base == "double" && !strings.ContainsAny(value, ".eE") {
			value += ".0"
		}
		sep := ","
		if i == len(e.Cases)-1 {
			sep = ";"
		}
		sb.WriteString(fmt.Sprintf("  %s(%s)%s\n", dartEnumCase(c.Name), value, sep))
	}
	sb.WriteString(fmt.Sprintf("\n  const %s(this.value);\n\n", e.Name))
	sb.WriteString(fmt.Sprintf("  final %s value;\n\n", base))
	sb.WriteString(fmt.Sprintf("  static %s fromJson(Object? raw) {\n", e.Name))
	sb.WriteString(fmt.Sprintf("    final v = %s(raw);\n", decoder))
	sb.WriteString("    return values.firstWhere((e) => e.value == v,\n")
	sb.WriteString(fmt.Sprintf("        orElse: () => throw RemoteError(-32602, %s + v.toString(), null));\n  }\n\n", quoteInterpolated("unknown "+e.Name+" value: ")))
	sb.WriteString(fmt.Sprintf("  %s toJson() => value;\n}\n", base))
}
