package emitter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

// classView is the template data of a class file.
type classView struct {
	Package  string
	Name     string
	Doc      []string
	BaseURL  string
	Methods  []methodView
	Imports  []string
	Types    []string
	HasTypes bool
}

// methodView is one exposed method.
type methodView struct {
	Name      string
	RPCName   string
	Doc       []string
	Params    []paramView
	Signature string
	Args      string
	Return    string
	Void      bool
	Async     bool
	Decode    string
}

// paramView is one method parameter. Optional marks a member of the
// trailing run of optional parameters; Nullable marks an optional parameter
// followed by a required one, which becomes a required nullable parameter.
type paramView struct {
	Name     string
	Type     string
	Base     string
	Optional bool
	Nullable bool
	Default  string
	Doc      string
}

// methodStyle is what a language contributes to building method views.
type methodStyle struct {
	table   *typeTable
	decoder *decoderTable

	methodName func(string) string
	paramName  func(string) string
	quote      func(string) string

	// defaults renders a parameter default as a literal of the parameter's
	// type. It reports false when the default does not fit the type.
	defaults func(def *ir.DefaultValue, typ ir.Node) (string, bool)

	// signature joins the parameter declarations.
	signature func(params []paramView) string
}

// trailingOptional returns the index of the first parameter of the trailing
// run of optional parameters, or len(params) when the last one is required.
func trailingOptional(params []*ir.Param) int {
	first := len(params)
	for first > 0 && params[first-1].Optional {
		first--
	}
	return first
}

// buildMethods projects the given methods of class into method views.
func buildMethods(class *ir.Class, methods []*ir.Method, st methodStyle, sc *scope) []methodView {
	views := make([]methodView, 0, len(methods))

	// Every client holds its runtime in a member named remote.
	methodNames := map[string]bool{"remote": true}

	for _, m := range methods {
		first := trailingOptional(m.Params)
		params := make([]paramView, 0, len(m.Params))
		names := make([]string, 0, len(m.Params))
		paramNames := make(map[string]bool, len(m.Params))

		for i, p := range m.Params {
			base := st.table.project(p.Type, sc)
			pv := paramView{
				Name: uniqueName(st.paramName(p.Name), paramNames),
				Type: base,
				Base: base,
				Doc:  p.Name,
			}
			if p.Optional {
				if i >= first {
					pv.Optional = true
					if p.Default != nil && st.defaults != nil {
						if lit, ok := st.defaults(p.Default, p.Type); ok {
							pv.Default = lit
						}
					}
				} else {
					pv.Nullable = true
				}
				if pv.Nullable || pv.Default == "" {
					pv.Type = st.table.optional(base)
				}
			}
			params = append(params, pv)
			names = append(names, pv.Name)
		}

		result := m.Result()
		mv := methodView{
			Name:    uniqueName(st.methodName(m.Name), methodNames),
			RPCName: st.quote(class.Name + "." + m.Name),
			Doc:     commentLines(m.Doc),
			Params:  params,
			Args:    strings.Join(names, ", "),
			Return:  st.table.project(result, sc),
			Void:    isVoid(result),
			Async:   m.Async(),
		}
		if !mv.Void && st.decoder != nil {
			mv.Decode = st.table.decode(result, "raw", st.decoder, sc, 0)
		}
		if st.signature != nil {
			mv.Signature = st.signature(params)
		}
		views = append(views, mv)
	}

	return views
}

// uniqueName returns name, or name with the smallest "_N" suffix not yet in
// used, and marks the result as used. Distinct IR names can map to one
// target identifier after case conversion.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
	used[candidate] = true
	return candidate
}

// clientName returns the identifier of a client class. A name taken by a
// declared type, or reported by taken, gets a trailing underscore.
func clientName(name string, types *TypeRegistry, taken func(string) bool) string {
	for types.Declares(name) || (taken != nil && taken(name)) {
		name += "_"
	}
	return name
}

func isVoid(n ir.Node) bool {
	p, ok := n.(*ir.Primitive)
	return ok && p.Type == ir.KindVoid
}

// primitiveKind returns the primitive kind under n, following aliases the
// registry knows.
func primitiveKind(n ir.Node, types *TypeRegistry) (ir.NodeKind, bool) {
	for depth := 0; depth < 8; depth++ {
		switch t := n.(type) {
		case *ir.Primitive:
			return t.Type, true
		case *ir.TypeAlias:
			n = t.Target
		case *ir.CustomRef:
			alias, ok := types.Alias(t.Name)
			if !ok {
				return "", false
			}
			n = alias.Target
		default:
			return "", false
		}
	}
	return "", false
}

// literalDefault renders def for a parameter of kind. The spellings of
// booleans and strings differ per language and are passed in.
func literalDefault(def *ir.DefaultValue, kind ir.NodeKind, trueLit, falseLit string, quoteFn func(string) string) (string, bool) {
	switch kind {
	case ir.KindString:
		if def.Type != ir.KindString {
			return "", false
		}
		return quoteFn(def.Value), true
	case ir.KindInteger:
		n, err := strconv.ParseFloat(def.Value, 64)
		if err != nil || n != float64(int64(n)) {
			return "", false
		}
		return strconv.FormatInt(int64(n), 10), true
	case ir.KindDouble:
		n, err := strconv.ParseFloat(def.Value, 64)
		if err != nil {
			return "", false
		}
		s := strconv.FormatFloat(n, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, true
	case ir.KindBoolean:
		switch strings.ToLower(def.Value) {
		case "true":
			return trueLit, true
		case "false":
			return falseLit, true
		}
	}
	return "", false
}

func joinDecls(params []paramView, decl func(p paramView) string) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, decl(p))
	}
	return strings.Join(parts, ", ")
}

// render executes a text template against a view.
func render(name, text string, funcs template.FuncMap, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(funcs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// rendered wraps content with what the scope recorded.
func rendered(content string, sc *scope) *Rendered {
	return &Rendered{Content: content, Referenced: sc.referenced, Unresolved: sc.unresolved}
}

// closureOf returns the declarations the given methods need, in registry
// order.
func closureOf(methods []*ir.Method, types *TypeRegistry) []ir.Node {
	return types.Closure([]ir.Node{&ir.Class{Methods: methods}})
}

func (o Options) registry() *TypeRegistry {
	if o.Types == nil {
		return CollectTypes(nil)
	}
	return o.Types
}
