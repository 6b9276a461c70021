// Package ir defines the language-agnostic intermediate representation of a
// backend's public surface: its classes, their methods, and the data types
// those methods exchange. The SDK emitters read these nodes and never mutate
// them.
package ir

// NodeKind is the discriminant of a Node. The values match the "type" tags
// of the IR wire format.
type NodeKind string

const (
	KindString      NodeKind = "StringLiteral"
	KindInteger     NodeKind = "IntegerLiteral"
	KindDouble      NodeKind = "DoubleLiteral"
	KindBoolean     NodeKind = "BooleanLiteral"
	KindAny         NodeKind = "AnyLiteral"
	KindVoid        NodeKind = "VoidLiteral"
	KindDate        NodeKind = "DateType"
	KindArray       NodeKind = "ArrayType"
	KindMap         NodeKind = "MapType"
	KindPromise     NodeKind = "PromiseType"
	KindCustom      NodeKind = "CustomNodeLiteral"
	KindUnion       NodeKind = "UnionType"
	KindTypeLiteral NodeKind = "TypeLiteral"
	KindStruct      NodeKind = "StructLiteral"
	KindEnum        NodeKind = "Enum"
	KindTypeAlias   NodeKind = "TypeAlias"
	KindClass       NodeKind = "ClassDefinition"
	KindUnknown     NodeKind = "Unknown"
)

// Node is a closed sum type. Only the variants declared in this package
// implement it, so a type switch over Node in an emitter lists every case.
type Node interface {
	Kind() NodeKind
	node()
}

type nodeBase struct{}

func (nodeBase) node() {}

// Primitive is one of the scalar literals: String, Integer, Double, Boolean,
// Any, Void or Date.
type Primitive struct {
	nodeBase
	Type NodeKind
}

func (p *Primitive) Kind() NodeKind { return p.Type }

// Shared primitive instances. Nodes are immutable so these may be reused.
var (
	String  = &Primitive{Type: KindString}
	Integer = &Primitive{Type: KindInteger}
	Double  = &Primitive{Type: KindDouble}
	Boolean = &Primitive{Type: KindBoolean}
	Any     = &Primitive{Type: KindAny}
	Void    = &Primitive{Type: KindVoid}
	Date    = &Primitive{Type: KindDate}
)

// Array is an ordered sequence of Element.
type Array struct {
	nodeBase
	Element Node
}

func (*Array) Kind() NodeKind { return KindArray }

// Map is an associative container.
type Map struct {
	nodeBase
	Key   Node
	Value Node
}

func (*Map) Kind() NodeKind { return KindMap }

// Promise is an eventual result. Emitters unwrap it one level for typing and
// treat the method returning it as asynchronous.
type Promise struct {
	nodeBase
	Inner Node
}

func (*Promise) Kind() NodeKind { return KindPromise }

// CustomRef is a reference by name to a Struct, Enum or TypeAlias declared
// somewhere in the project, possibly in another program.
type CustomRef struct {
	nodeBase
	Name string
}

func (*CustomRef) Kind() NodeKind { return KindCustom }

// Union is a sum of its members.
type Union struct {
	nodeBase
	Members []Node
}

func (*Union) Kind() NodeKind { return KindUnion }

// TypeLiteral is an anonymous object shape.
type TypeLiteral struct {
	nodeBase
	Properties []*Property
}

func (*TypeLiteral) Kind() NodeKind { return KindTypeLiteral }

// SingleMap returns the map type when the literal has exactly one property
// and that property is a Map. Several emitters project such literals to the
// bare map for compatibility with previously generated SDKs.
func (t *TypeLiteral) SingleMap() (*Map, bool) {
	if t == nil || len(t.Properties) != 1 {
		return nil, false
	}
	m, ok := t.Properties[0].Type.(*Map)
	return m, ok
}

// Property is a field of a TypeLiteral.
type Property struct {
	Name     string
	Type     Node
	Optional bool
}

// Struct is a named product type.
type Struct struct {
	nodeBase
	Name  string
	Path  string
	Shape *TypeLiteral
	Doc   string
}

func (*Struct) Kind() NodeKind { return KindStruct }

// Fields returns the struct properties, tolerating a missing shape.
func (s *Struct) Fields() []*Property {
	if s.Shape == nil {
		return nil
	}
	return s.Shape.Properties
}

// EnumCase is one member of an Enum. Value is a string or a number.
type EnumCase struct {
	Name  string
	Value any
}

// Enum is a named set of constants.
type Enum struct {
	nodeBase
	Name  string
	Path  string
	Cases []EnumCase
}

func (*Enum) Kind() NodeKind { return KindEnum }

// Numeric reports whether every case carries a numeric value. An enum
// without cases is treated as a string enum.
func (e *Enum) Numeric() bool {
	if len(e.Cases) == 0 {
		return false
	}
	for _, c := range e.Cases {
		switch c.Value.(type) {
		case float64, int, int64:
		default:
			return false
		}
	}
	return true
}

// TypeAlias gives a name to another type expression.
type TypeAlias struct {
	nodeBase
	Name   string
	Path   string
	Target Node
}

func (*TypeAlias) Kind() NodeKind { return KindTypeAlias }

// Class is an exported backend class whose methods may become SDK stubs.
type Class struct {
	nodeBase
	Name    string
	Path    string
	Doc     string
	Methods []*Method
}

func (*Class) Kind() NodeKind { return KindClass }

// Method is a class method.
type Method struct {
	Name   string
	Params []*Param
	Return Node
	Doc    string
}

// Async reports whether the method returns a Promise.
func (m *Method) Async() bool {
	_, ok := m.Return.(*Promise)
	return ok
}

// Result returns the return type with one Promise level removed.
func (m *Method) Result() Node {
	if p, ok := m.Return.(*Promise); ok {
		return p.Inner
	}
	if m.Return == nil {
		return Void
	}
	return m.Return
}

// Param is a method parameter.
type Param struct {
	Name     string
	Type     Node
	Optional bool
	Default  *DefaultValue
}

// DefaultValue is a literal parameter default. Type is KindString,
// KindInteger, KindDouble or KindBoolean; anything else is emitted as the
// language's null.
type DefaultValue struct {
	Value string
	Type  NodeKind
}

// Unknown stands in for a tag this version of the IR does not know. Emitters
// project it to their dynamic type.
type Unknown struct {
	nodeBase
	Tag string
}

func (*Unknown) Kind() NodeKind { return KindUnknown }
