package ir

// Walk visits n and every node reachable from it in depth-first order. If fn
// returns false the children of that node are skipped. CustomRef nodes are
// visited but not followed; resolving names is the caller's job.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	switch t := n.(type) {
	case *Array:
		Walk(t.Element, fn)
	case *Map:
		Walk(t.Key, fn)
		Walk(t.Value, fn)
	case *Promise:
		Walk(t.Inner, fn)
	case *Union:
		for _, m := range t.Members {
			Walk(m, fn)
		}
	case *TypeLiteral:
		for _, p := range t.Properties {
			Walk(p.Type, fn)
		}
	case *Struct:
		if t.Shape != nil {
			Walk(t.Shape, fn)
		}
	case *TypeAlias:
		Walk(t.Target, fn)
	case *Class:
		for _, m := range t.Methods {
			WalkMethod(m, fn)
		}
	case *Primitive, *CustomRef, *Enum, *Unknown:
	}
}

// WalkMethod walks the parameter and return types of m.
func WalkMethod(m *Method, fn func(Node) bool) {
	for _, p := range m.Params {
		Walk(p.Type, fn)
	}
	Walk(m.Return, fn)
}

// CustomNames returns the distinct names referenced by CustomRef nodes under
// n, in first-seen order.
func CustomNames(n Node) []string {
	seen := make(map[string]bool)
	var names []string
	Walk(n, func(x Node) bool {
		if ref, ok := x.(*CustomRef); ok && !seen[ref.Name] {
			seen[ref.Name] = true
			names = append(names, ref.Name)
		}
		return true
	})
	return names
}
