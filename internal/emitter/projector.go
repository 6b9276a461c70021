package emitter

import (
	"fmt"
	"sort"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

// scope collects what projecting the types of one output file required:
// imports, referenced named types and names that did not resolve.
type scope struct {
	types      *TypeRegistry
	imports    map[string]bool
	referenced []string
	seen       map[string]bool
	unresolved []string
	aliases    map[string]bool
}

func newScope(types *TypeRegistry) *scope {
	if types == nil {
		types = CollectTypes(nil)
	}
	return &scope{
		types:   types,
		imports: make(map[string]bool),
		seen:    make(map[string]bool),
		aliases: make(map[string]bool),
	}
}

func (s *scope) use(imp string) {
	if imp != "" {
		s.imports[imp] = true
	}
}

func (s *scope) reference(name string) {
	if !s.seen[name] {
		s.seen[name] = true
		s.referenced = append(s.referenced, name)
	}
}

// Imports returns the collected imports sorted.
func (s *scope) Imports() []string {
	out := make([]string, 0, len(s.imports))
	for imp := range s.imports {
		out = append(out, imp)
	}
	sort.Strings(out)
	return out
}

// fieldType is a projected property of an inline object type.
type fieldType struct {
	Name     string
	Type     string
	Optional bool
}

// typeTable is the per-language vocabulary of the projector. The tree walk
// itself is shared by every target.
type typeTable struct {
	primitives map[ir.NodeKind]string
	imports    map[ir.NodeKind]string // import required by a primitive
	dynamic    string                 // top type used for Any and every fallback
	dynamicImp string

	array    func(elem string) string
	mapOf    func(key, value string) string
	nullable func(base string) string

	// union renders a union; nil means the language has none and the
	// dynamic type is used.
	union func(members []string) string

	// literal renders an inline object type; nil falls back to object.
	literal   func(fields []fieldType) string
	object    string
	objectImp string

	// unwrapSingleMap projects a TypeLiteral whose only property is a Map
	// to that Map, matching previously generated SDKs.
	unwrapSingleMap bool

	reserved map[string]bool
}

func (t *typeTable) dyn(sc *scope) string {
	sc.use(t.dynamicImp)
	return t.dynamic
}

// project maps an IR node to a type expression of the target language.
func (t *typeTable) project(n ir.Node, sc *scope) string {
	switch n := n.(type) {
	case *ir.Primitive:
		name, ok := t.primitives[n.Type]
		if !ok {
			return t.dyn(sc)
		}
		if n.Type == ir.KindAny {
			sc.use(t.dynamicImp)
		}
		sc.use(t.imports[n.Type])
		return name

	case *ir.Array:
		return t.array(t.project(n.Element, sc))

	case *ir.Map:
		return t.mapOf(t.project(n.Key, sc), t.project(n.Value, sc))

	case *ir.Promise:
		return t.project(n.Inner, sc)

	case *ir.CustomRef:
		return t.projectRef(n.Name, sc)

	case *ir.Union:
		if t.union == nil {
			return t.dyn(sc)
		}
		members := make([]string, 0, len(n.Members))
		seen := make(map[string]bool)
		for _, m := range n.Members {
			p := t.project(m, sc)
			if !seen[p] {
				seen[p] = true
				members = append(members, p)
			}
		}
		switch len(members) {
		case 0:
			return t.dyn(sc)
		case 1:
			return members[0]
		}
		return t.union(members)

	case *ir.TypeLiteral:
		if t.unwrapSingleMap {
			if m, ok := n.SingleMap(); ok {
				return t.project(m, sc)
			}
		}
		if t.literal == nil {
			sc.use(t.objectImp)
			return t.object
		}
		fields := make([]fieldType, 0, len(n.Properties))
		for _, p := range n.Properties {
			fields = append(fields, fieldType{Name: p.Name, Type: t.project(p.Type, sc), Optional: p.Optional})
		}
		return t.literal(fields)

	case *ir.Struct:
		return t.projectRef(n.Name, sc)

	case *ir.Enum:
		return t.projectRef(n.Name, sc)

	case *ir.TypeAlias:
		return t.project(n.Target, sc)

	case *ir.Class, *ir.Unknown:
		return t.dyn(sc)
	}

	return t.dyn(sc)
}

// projectRef resolves a name across the whole project. Aliases are inlined;
// names that resolve to nothing fall back to the dynamic type.
func (t *typeTable) projectRef(name string, sc *scope) string {
	if _, ok := sc.types.Lookup(name); ok {
		sc.reference(name)
		return name
	}
	if alias, ok := sc.types.Alias(name); ok && !sc.aliases[name] {
		sc.aliases[name] = true
		defer delete(sc.aliases, name)
		return t.project(alias.Target, sc)
	}
	sc.unresolved = append(sc.unresolved, name)
	return t.dyn(sc)
}

// optional wraps a projected type in the language's nullable marker.
func (t *typeTable) optional(base string) string {
	if t.nullable == nil {
		return base
	}
	return t.nullable(base)
}

// decodedField is a property of an inline object decoded from raw JSON.
type decodedField struct {
	Name string
	Type string
	Expr string
}

// decoderTable is the per-language vocabulary for turning the untyped value
// returned by the remote runtime into the declared static type. Each hook
// receives the raw value expression it must convert.
type decoderTable struct {
	primitives map[ir.NodeKind]string // fmt format with one %s for the raw value
	dynamic    string                 // fmt format for values passed through

	array    func(raw, elemType, elemVar, elemExpr string) string
	mapOf    func(raw, keyType, keyVar, keyExpr, valueType, valueVar, valueExpr string) string
	mapKey   func(keyVar string) string // raw expression for a map key variable
	fieldRaw func(name string) string   // raw expression for property name of m
	nullable func(raw, baseType, elemVar, expr string) string
	named    func(raw, name string) string

	// literal decodes an inline object type field by field; nil passes the
	// value through as the object type.
	literal func(raw, typ string, fields []decodedField) string
	object  string
}

// decode returns an expression converting raw into the projection of n.
// Integer always goes through an explicit narrowing helper: the wire carries
// one numeric type and 3.0 must become the integer 3.
func (t *typeTable) decode(n ir.Node, raw string, d *decoderTable, sc *scope, depth int) string {
	elemVar := fmt.Sprintf("e%d", depth)

	switch n := n.(type) {
	case *ir.Primitive:
		if f, ok := d.primitives[n.Type]; ok {
			return fmt.Sprintf(f, raw)
		}
		return fmt.Sprintf(d.dynamic, raw)

	case *ir.Array:
		elemType := t.project(n.Element, sc)
		return d.array(raw, elemType, elemVar, t.decode(n.Element, elemVar, d, sc, depth+1))

	case *ir.Map:
		keyVar := fmt.Sprintf("k%d", depth)
		keyType := t.project(n.Key, sc)
		valueType := t.project(n.Value, sc)
		keyExpr := t.decode(n.Key, d.mapKey(keyVar), d, sc, depth+1)
		valueExpr := t.decode(n.Value, elemVar, d, sc, depth+1)
		return d.mapOf(raw, keyType, keyVar, keyExpr, valueType, elemVar, valueExpr)

	case *ir.Promise:
		return t.decode(n.Inner, raw, d, sc, depth)

	case *ir.CustomRef:
		return t.decodeRef(n.Name, raw, d, sc, depth)

	case *ir.Union:
		return fmt.Sprintf(d.dynamic, raw)

	case *ir.TypeLiteral:
		if t.unwrapSingleMap {
			if m, ok := n.SingleMap(); ok {
				return t.decode(m, raw, d, sc, depth)
			}
		}
		if d.literal == nil || t.literal == nil {
			return fmt.Sprintf(d.object, raw)
		}
		typ := t.project(n, sc)
		fields := make([]decodedField, 0, len(n.Properties))
		for _, p := range n.Properties {
			fields = append(fields, t.decodeField(p, d, sc, depth+1))
		}
		return d.literal(raw, typ, fields)

	case *ir.Struct:
		return t.decodeRef(n.Name, raw, d, sc, depth)

	case *ir.Enum:
		return t.decodeRef(n.Name, raw, d, sc, depth)

	case *ir.TypeAlias:
		return t.decode(n.Target, raw, d, sc, depth)

	case *ir.Class, *ir.Unknown:
		return fmt.Sprintf(d.dynamic, raw)
	}

	return fmt.Sprintf(d.dynamic, raw)
}

func (t *typeTable) decodeRef(name, raw string, d *decoderTable, sc *scope, depth int) string {
	if _, ok := sc.types.Lookup(name); ok {
		sc.reference(name)
		return d.named(raw, name)
	}
	if alias, ok := sc.types.Alias(name); ok && !sc.aliases[name] {
		sc.aliases[name] = true
		defer delete(sc.aliases, name)
		return t.decode(alias.Target, raw, d, sc, depth)
	}
	return fmt.Sprintf(d.dynamic, raw)
}

// decodeField decodes one property accessed from an object variable named
// m. Optional properties go through the nullable hook; a hook returning ""
// means the type already has a zero value for absent properties.
func (t *typeTable) decodeField(p *ir.Property, d *decoderTable, sc *scope, depth int) decodedField {
	raw := fmt.Sprintf("m[%s]", quote(p.Name))
	if d.fieldRaw != nil {
		raw = d.fieldRaw(p.Name)
	}
	base := t.project(p.Type, sc)
	if p.Optional {
		elemVar := fmt.Sprintf("e%d", depth)
		inner := t.decode(p.Type, elemVar, d, sc, depth+1)
		if expr := d.nullable(raw, base, elemVar, inner); expr != "" {
			return decodedField{Name: p.Name, Type: t.optional(base), Expr: expr}
		}
		return decodedField{Name: p.Name, Type: t.optional(base), Expr: t.decode(p.Type, raw, d, sc, depth)}
	}
	return decodedField{Name: p.Name, Type: base, Expr: t.decode(p.Type, raw, d, sc, depth)}
}
