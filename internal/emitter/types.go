package emitter

import "github.com/QTest-hq/sdkgen/pkg/ir"

// TypeRegistry holds the named struct, enum and alias declarations of a
// whole project. It is built once before any class is emitted and is
// read-only afterwards.
type TypeRegistry struct {
	order      []string
	decls      map[string]ir.Node
	aliases    map[string]*ir.TypeAlias
	duplicates []string
}

// CollectTypes walks the bodies of all programs in order and registers every
// Struct, Enum and TypeAlias by name. The first declaration of a name wins;
// later ones are recorded in Duplicates and otherwise ignored.
func CollectTypes(programs []*ir.Program) *TypeRegistry {
	r := &TypeRegistry{
		decls:   make(map[string]ir.Node),
		aliases: make(map[string]*ir.TypeAlias),
	}

	for _, p := range programs {
		if p == nil {
			continue
		}
		for _, n := range p.Body {
			switch t := n.(type) {
			case *ir.Struct:
				r.add(t.Name, t)
			case *ir.Enum:
				r.add(t.Name, t)
			case *ir.TypeAlias:
				if _, taken := r.decls[t.Name]; taken {
					r.duplicates = append(r.duplicates, t.Name)
					continue
				}
				if _, taken := r.aliases[t.Name]; taken {
					r.duplicates = append(r.duplicates, t.Name)
					continue
				}
				r.aliases[t.Name] = t
			}
		}
	}

	return r
}

func (r *TypeRegistry) add(name string, n ir.Node) {
	if name == "" {
		return
	}
	_, declared := r.decls[name]
	_, aliased := r.aliases[name]
	if declared || aliased {
		r.duplicates = append(r.duplicates, name)
		return
	}
	r.decls[name] = n
	r.order = append(r.order, name)
}

// Lookup returns the struct or enum declared under name.
func (r *TypeRegistry) Lookup(name string) (ir.Node, bool) {
	n, ok := r.decls[name]
	return n, ok
}

// Declares reports whether name is taken by a struct, enum or alias.
func (r *TypeRegistry) Declares(name string) bool {
	_, declared := r.decls[name]
	_, aliased := r.aliases[name]
	return declared || aliased
}

// Alias returns the alias declared under name.
func (r *TypeRegistry) Alias(name string) (*ir.TypeAlias, bool) {
	a, ok := r.aliases[name]
	return a, ok
}

// Len returns the number of struct and enum declarations.
func (r *TypeRegistry) Len() int {
	return len(r.order)
}

// Decls returns all struct and enum declarations in registration order.
func (r *TypeRegistry) Decls() []ir.Node {
	out := make([]ir.Node, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.decls[name])
	}
	return out
}

// Duplicates returns the names whose later declarations were dropped.
func (r *TypeRegistry) Duplicates() []string {
	return r.duplicates
}

// Closure returns the declarations needed by the given roots: the named
// types they reference, followed transitively through struct fields and
// aliases. The result is in registration order so output is stable.
func (r *TypeRegistry) Closure(roots []ir.Node) []ir.Node {
	needed := make(map[string]bool)
	visitingAlias := make(map[string]bool)

	var visit func(n ir.Node)
	visit = func(n ir.Node) {
		for _, name := range ir.CustomNames(n) {
			if decl, ok := r.decls[name]; ok {
				if needed[name] {
					continue
				}
				needed[name] = true
				visit(decl)
				continue
			}
			if alias, ok := r.aliases[name]; ok && !visitingAlias[name] {
				visitingAlias[name] = true
				visit(alias.Target)
			}
		}
	}
	for _, root := range roots {
		visit(root)
	}

	out := make([]ir.Node, 0, len(needed))
	for _, name := range r.order {
		if needed[name] {
			out = append(out, r.decls[name])
		}
	}
	return out
}
