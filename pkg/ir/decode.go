package ir

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

type wireProperty struct {
	Name     string          `json:"name"`
	Type     json.RawMessage `json:"type"`
	Optional bool            `json:"optional"`
}

type wireTypeLiteral struct {
	Properties []wireProperty `json:"properties"`
}

type wireParam struct {
	Name         string          `json:"name"`
	ParamType    json.RawMessage `json:"paramType"`
	Optional     bool            `json:"optional"`
	DefaultValue *struct {
		Value string `json:"value"`
		Type  string `json:"type"`
	} `json:"defaultValue,omitempty"`
}

type wireMethod struct {
	Name       string          `json:"name"`
	Params     []wireParam     `json:"params"`
	ReturnType json.RawMessage `json:"returnType"`
	DocString  string          `json:"docString,omitempty"`
}

type wireNode struct {
	Type         string            `json:"type"`
	Name         string            `json:"name"`
	Path         string            `json:"path"`
	DocString    string            `json:"docString"`
	RawValue     string            `json:"rawValue"`
	Generic      json.RawMessage   `json:"generic"`
	GenericKey   json.RawMessage   `json:"genericKey"`
	GenericValue json.RawMessage   `json:"genericValue"`
	AliasType    json.RawMessage   `json:"aliasType"`
	Params       []json.RawMessage `json:"params"`
	Properties   []wireProperty    `json:"properties"`
	TypeLiteral  *wireTypeLiteral  `json:"typeLiteral"`
	Cases        []wireEnumCase    `json:"cases"`
	Methods      []wireMethod      `json:"methods"`
}

type wireEnumCase struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type wireProgram struct {
	Body             []json.RawMessage `json:"body"`
	OriginalLanguage string            `json:"originalLanguage"`
	SourceType       string            `json:"sourceType"`
}

// DecodeProgram parses a Program from its JSON wire form.
func DecodeProgram(data []byte) (*Program, error) {
	var w wireProgram
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}

	p := &Program{
		Body:             make([]Node, 0, len(w.Body)),
		OriginalLanguage: w.OriginalLanguage,
		SourceType:       w.SourceType,
	}
	for i, raw := range w.Body {
		n, err := DecodeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("body[%d]: %w", i, err)
		}
		p.Body = append(p.Body, n)
	}
	return p, nil
}

// DecodeNode parses a single node. Unrecognised tags become Unknown rather
// than an error; a missing or null node decodes to Any.
func DecodeNode(data []byte) (Node, error) {
	if isNull(data) {
		return Any, nil
	}

	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse node: %w", err)
	}

	switch NodeKind(w.Type) {
	case KindString:
		return String, nil
	case KindInteger:
		return Integer, nil
	case KindDouble, "FloatLiteral":
		return Double, nil
	case KindBoolean:
		return Boolean, nil
	case KindAny:
		return Any, nil
	case KindVoid:
		return Void, nil
	case KindDate:
		return Date, nil

	case KindArray:
		elem, err := DecodeNode(w.Generic)
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return &Array{Element: elem}, nil

	case KindMap:
		key, err := DecodeNode(w.GenericKey)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		value, err := DecodeNode(w.GenericValue)
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		return &Map{Key: key, Value: value}, nil

	case KindPromise:
		inner, err := DecodeNode(w.Generic)
		if err != nil {
			return nil, fmt.Errorf("promise: %w", err)
		}
		return &Promise{Inner: inner}, nil

	case KindCustom:
		return &CustomRef{Name: w.RawValue}, nil

	case KindUnion:
		u := &Union{Members: make([]Node, 0, len(w.Params))}
		for i, raw := range w.Params {
			m, err := DecodeNode(raw)
			if err != nil {
				return nil, fmt.Errorf("union member %d: %w", i, err)
			}
			u.Members = append(u.Members, m)
		}
		return u, nil

	case KindTypeLiteral:
		return decodeTypeLiteral(w.Properties)

	case KindStruct:
		s := &Struct{Name: w.Name, Path: w.Path, Doc: w.DocString, Shape: &TypeLiteral{}}
		if w.TypeLiteral != nil {
			shape, err := decodeTypeLiteral(w.TypeLiteral.Properties)
			if err != nil {
				return nil, fmt.Errorf("struct %s: %w", w.Name, err)
			}
			s.Shape = shape
		}
		return s, nil

	case KindEnum:
		e := &Enum{Name: w.Name, Path: w.Path, Cases: make([]EnumCase, 0, len(w.Cases))}
		for _, c := range w.Cases {
			e.Cases = append(e.Cases, EnumCase{Name: c.Name, Value: c.Value})
		}
		return e, nil

	case KindTypeAlias:
		target, err := DecodeNode(w.AliasType)
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", w.Name, err)
		}
		return &TypeAlias{Name: w.Name, Path: w.Path, Target: target}, nil

	case KindClass:
		return decodeClass(&w)

	default:
		return &Unknown{Tag: w.Type}, nil
	}
}

func decodeTypeLiteral(props []wireProperty) (*TypeLiteral, error) {
	t := &TypeLiteral{Properties: make([]*Property, 0, len(props))}
	for _, p := range props {
		typ, err := DecodeNode(p.Type)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Name, err)
		}
		t.Properties = append(t.Properties, &Property{Name: p.Name, Type: typ, Optional: p.Optional})
	}
	return t, nil
}

func decodeClass(w *wireNode) (*Class, error) {
	c := &Class{Name: w.Name, Path: w.Path, Doc: w.DocString, Methods: make([]*Method, 0, len(w.Methods))}
	for _, wm := range w.Methods {
		ret, err := DecodeNode(wm.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("method %s.%s return: %w", c.Name, wm.Name, err)
		}
		m := &Method{Name: wm.Name, Return: ret, Doc: wm.DocString, Params: make([]*Param, 0, len(wm.Params))}
		for _, wp := range wm.Params {
			typ, err := DecodeNode(wp.ParamType)
			if err != nil {
				return nil, fmt.Errorf("method %s.%s param %s: %w", c.Name, wm.Name, wp.Name, err)
			}
			p := &Param{Name: wp.Name, Type: typ, Optional: wp.Optional}
			if wp.DefaultValue != nil {
				p.Default = &DefaultValue{Value: wp.DefaultValue.Value, Type: NodeKind(wp.DefaultValue.Type)}
			}
			m.Params = append(m.Params, p)
		}
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
