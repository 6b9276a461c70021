package emitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

func itemStruct() *ir.Struct {
	return &ir.Struct{
		Name: "Item",
		Path: "cart.ts",
		Shape: &ir.TypeLiteral{Properties: []*ir.Property{
			{Name: "name", Type: ir.String},
			{Name: "price", Type: ir.Double},
		}},
	}
}

// cartProgram is the Cart class with addItem(item: Item, qty: Integer)
// returning Promise<Boolean>.
func cartProgram() *ir.Program {
	return &ir.Program{
		OriginalLanguage: "ts",
		Body: []ir.Node{
			itemStruct(),
			&ir.Class{
				Name: "Cart",
				Path: "cart.ts",
				Doc:  "Shopping cart.",
				Methods: []*ir.Method{
					{
						Name: "addItem",
						Params: []*ir.Param{
							{Name: "item", Type: &ir.CustomRef{Name: "Item"}},
							{Name: "qty", Type: ir.Integer},
						},
						Return: &ir.Promise{Inner: ir.Boolean},
					},
				},
			},
		},
	}
}

func jsonrpcConfig(name string) *ir.ClassConfig {
	return &ir.ClassConfig{Name: name, Type: ir.TriggerJSONRPC}
}

// emitCart renders the Cart scenario with e and returns the class file and
// the models file (nil for inline targets).
func emitCart(t *testing.T, e Emitter) (*File, *Rendered) {
	t.Helper()

	p := cartProgram()
	types := CollectTypes([]*ir.Program{p})
	opts := Options{PackageName: "example.com/cartsdk", Types: types}

	f, _, err := Class(e, p, jsonrpcConfig("Cart"), opts)
	require.NoError(t, err)
	require.NotNil(t, f)

	models, err := e.EmitModels(types.Decls(), opts)
	require.NoError(t, err)
	return f, models
}

// singleMethod wraps one method in a class named Svc and renders it.
func singleMethod(t *testing.T, e Emitter, m *ir.Method, decls ...ir.Node) *Rendered {
	t.Helper()

	class := &ir.Class{Name: "Svc", Methods: []*ir.Method{m}}
	body := append([]ir.Node{}, decls...)
	body = append(body, class)
	p := &ir.Program{Body: body}
	types := CollectTypes([]*ir.Program{p})

	r, err := e.EmitClass(class, class.Methods, Options{Types: types})
	require.NoError(t, err)
	return r
}

func allEmitters() []Emitter {
	r := NewRegistry()
	var out []Emitter
	for _, lang := range r.List() {
		e, _ := r.Get(lang)
		out = append(out, e)
	}
	return out
}
