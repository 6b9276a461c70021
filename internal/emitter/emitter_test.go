package emitter

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []Language{Dart, Go, JavaScript, Kotlin, Python, TypeScript}, r.List())

	for _, lang := range r.List() {
		e, err := r.Get(lang)
		require.NoError(t, err)
		assert.Equal(t, lang, e.Language())
	}

	_, err := r.Get("cobol")
	assert.Error(t, err)
}

func TestEmitter_Static(t *testing.T) {
	for _, e := range allEmitters() {
		t.Run(string(e.Language()), func(t *testing.T) {
			switch e.Language() {
			case Go, Kotlin, Dart:
				assert.True(t, e.Static())
				assert.NotEmpty(t, e.ModelsFileName())
			default:
				assert.False(t, e.Static())
				assert.Empty(t, e.ModelsFileName())
			}
		})
	}
}

func TestEmitter_FileName(t *testing.T) {
	tests := []struct {
		lang   Language
		class  string
		expect string
	}{
		{TypeScript, "ShoppingCart", "shoppingCart.sdk.ts"},
		{JavaScript, "ShoppingCart", "shoppingCart.sdk.js"},
		{Python, "ShoppingCart", "shopping_cart.py"},
		{Go, "ShoppingCart", "shopping_cart.go"},
		{Kotlin, "ShoppingCart", "ShoppingCart.kt"},
		{Dart, "ShoppingCart", "shopping_cart.dart"},
		{Python, "HTTPServer", "http_server.py"},
	}

	r := NewRegistry()
	for _, tt := range tests {
		e, err := r.Get(tt.lang)
		require.NoError(t, err)
		assert.Equal(t, tt.expect, e.FileName(tt.class), "%s %s", tt.lang, tt.class)
	}
}

func TestClass_Skips(t *testing.T) {
	e := &TypeScriptEmitter{}

	noClass := &ir.Program{Body: []ir.Node{itemStruct()}}
	_, _, err := Class(e, noClass, nil, Options{})
	assert.ErrorIs(t, err, ErrNoClass)

	httpOnly := &ir.ClassConfig{
		Name:    "Cart",
		Type:    ir.TriggerJSONRPC,
		Methods: []ir.MethodConfig{{Name: "addItem", Type: ir.TriggerHTTP}},
	}
	_, _, err = Class(e, cartProgram(), httpOnly, Options{})
	assert.ErrorIs(t, err, ErrNoExposedMethods)
}

func TestSentinel_ExactlyOncePerClassFile(t *testing.T) {
	for _, e := range allEmitters() {
		t.Run(string(e.Language()), func(t *testing.T) {
			p := cartProgram()
			p.Class().Doc = "Points at " + BaseURLSentinel + " eventually."
			p.Class().Methods[0].Doc = BaseURLSentinel

			f, _, err := Class(e, p, nil, Options{Types: CollectTypes([]*ir.Program{p})})
			require.NoError(t, err)
			assert.Equal(t, 1, strings.Count(f.Content, BaseURLSentinel))
			assert.Contains(t, f.Content, `"`+BaseURLSentinel+`"`)
		})
	}
}

func TestRuntime_HasNoSentinel(t *testing.T) {
	for _, e := range allEmitters() {
		t.Run(string(e.Language()), func(t *testing.T) {
			files := e.Runtime(Options{})
			require.NotEmpty(t, files)
			for _, f := range files {
				assert.NotContains(t, f.Content, BaseURLSentinel, f.Path)
			}
		})
	}
}

func TestCartScenario_TypeScript(t *testing.T) {
	f, models := emitCart(t, &TypeScriptEmitter{})

	assert.Nil(t, models)
	assert.Equal(t, "cart.sdk.ts", f.Path)
	assert.Equal(t, "Cart", f.Class)
	assert.Contains(t, f.Content, `import { Remote } from "./remote";`)
	assert.Contains(t, f.Content, "export type Item = {\n  name: string;\n  price: number;\n};")
	assert.Contains(t, f.Content, "/**\n * Shopping cart.\n */\nexport class Cart {")
	assert.Contains(t, f.Content, "static async addItem(item: Item, qty: number): Promise<boolean> {")
	assert.Contains(t, f.Content, `return await Cart.remote.call("Cart.addItem", [item, qty]);`)
}

func TestCartScenario_JavaScript(t *testing.T) {
	f, _ := emitCart(t, &JavaScriptEmitter{})

	assert.Equal(t, "cart.sdk.js", f.Path)
	assert.Contains(t, f.Content, " * @typedef {Object} Item\n * @property {string} name\n * @property {number} price\n")
	assert.Contains(t, f.Content, "   * @param {Item} item\n   * @param {number} qty\n   * @returns {Promise<boolean>}\n")
	assert.Contains(t, f.Content, "static async addItem(item, qty) {")
	assert.Contains(t, f.Content, `return await Cart.remote.call("Cart.addItem", [item, qty]);`)
}

func TestCartScenario_Python(t *testing.T) {
	f, _ := emitCart(t, &PythonEmitter{})

	assert.Equal(t, "cart.py", f.Path)
	assert.Contains(t, f.Content, "from typing import TypedDict\n")
	assert.Contains(t, f.Content, "from .remote import Remote\n")
	assert.Contains(t, f.Content, "class Item(TypedDict):\n    name: str\n    price: float\n")
	assert.Contains(t, f.Content, "class Cart:\n    \"\"\"\n    Shopping cart.\n    \"\"\"\n")
	assert.Contains(t, f.Content, "    @classmethod\n    async def add_item(cls, item: Item, qty: int) -> bool:\n")
	assert.Contains(t, f.Content, `return await cls.remote.call_async("Cart.addItem", [item, qty])`)
}

func TestCartScenario_Go(t *testing.T) {
	f, models := emitCart(t, &GoEmitter{})

	assert.Equal(t, "cart.go", f.Path)
	assert.Contains(t, f.Content, "package cartsdk\n")
	assert.Contains(t, f.Content, `"example.com/cartsdk/remote"`)
	assert.Contains(t, f.Content, "func (c *Cart) AddItem(ctx context.Context, item Item, qty int) (bool, error) {")
	assert.Contains(t, f.Content, `raw, err := c.remote.Call(ctx, "Cart.addItem", item, qty)`)
	assert.Contains(t, f.Content, "return remote.Bool(raw)")

	require.NotNil(t, models)
	assert.Contains(t, models.Content, "type Item struct {")
	assert.Contains(t, models.Content, "Price float64 `json:\"price\"`")
	assert.Contains(t, models.Content, "func DecodeItem(raw any) (Item, error) {")
	assert.Contains(t, models.Content, `out.Price, err = remote.Float(m["price"])`)

	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, f.Path, f.Content, parser.AllErrors)
	assert.NoError(t, err)
	_, err = parser.ParseFile(fset, "models.go", models.Content, parser.AllErrors)
	assert.NoError(t, err)
}

func TestCartScenario_Kotlin(t *testing.T) {
	f, models := emitCart(t, &KotlinEmitter{})

	assert.Equal(t, "Cart.kt", f.Path)
	assert.Contains(t, f.Content, "package example.com.cartsdk\n")
	assert.Contains(t, f.Content, "object Cart {")
	assert.Contains(t, f.Content, "suspend fun addItem(item: Item, qty: Int): Boolean {")
	assert.Contains(t, f.Content, `val raw = remote.callAsync("Cart.addItem", listOf(item, qty))`)
	assert.Contains(t, f.Content, "return Remote.bool(raw)")

	require.NotNil(t, models)
	assert.Contains(t, models.Content, "data class Item(\n    val name: String,\n    val price: Double,\n)")
	assert.Contains(t, models.Content, `price = Remote.double(m["price"]),`)
}

func TestCartScenario_Dart(t *testing.T) {
	f, models := emitCart(t, &DartEmitter{})

	assert.Equal(t, "cart.dart", f.Path)
	assert.Contains(t, f.Content, "import 'models.dart';")
	assert.Contains(t, f.Content, "/// Shopping cart.\nclass Cart {")
	assert.Contains(t, f.Content, "static Future<bool> addItem(Item item, int qty) async {")
	assert.Contains(t, f.Content, `final raw = await remote.call("Cart.addItem", [item, qty]);`)
	assert.Contains(t, f.Content, "return Remote.toBool(raw);")

	require.NotNil(t, models)
	assert.Contains(t, models.Content, "  final String name;\n  final double price;\n")
	assert.Contains(t, models.Content, "const Item({required this.name, required this.price});")
	assert.Contains(t, models.Content, `price: Remote.toDouble(m["price"]),`)
}

func TestReservedWordEscaping(t *testing.T) {
	m := &ir.Method{
		Name:   "find",
		Params: []*ir.Param{{Name: "type", Type: ir.String}},
		Return: ir.String,
	}

	tests := []struct {
		e    Emitter
		decl string
		call string
	}{
		{&TypeScriptEmitter{}, "find(type_: string)", `[type_]`},
		{&JavaScriptEmitter{}, "find(type_)", `[type_]`},
		{&PythonEmitter{}, "def find(cls, type_: str)", `[type_]`},
		{&GoEmitter{}, "Find(ctx context.Context, type_ string)", `"Svc.find", type_)`},
		{&DartEmitter{}, "find(String type_)", `[type_]`},
	}

	for _, tt := range tests {
		t.Run(string(tt.e.Language()), func(t *testing.T) {
			r := singleMethod(t, tt.e, m)
			assert.Contains(t, r.Content, tt.decl)
			assert.Contains(t, r.Content, tt.call)
		})
	}
}

func TestIntegerNarrowing(t *testing.T) {
	m := &ir.Method{Name: "count", Return: ir.Integer}

	tests := []struct {
		e      Emitter
		decode string
	}{
		{&GoEmitter{}, "return remote.Int(raw)"},
		{&KotlinEmitter{}, "return Remote.int(raw)"},
		{&DartEmitter{}, "return Remote.toInt(raw);"},
	}

	for _, tt := range tests {
		t.Run(string(tt.e.Language()), func(t *testing.T) {
			r := singleMethod(t, tt.e, m)
			assert.Contains(t, r.Content, tt.decode)
		})
	}
}

func TestSimpleTypeRoundTrip_Decoders(t *testing.T) {
	m := &ir.Method{
		Name: "stock",
		Return: &ir.Map{
			Key:   ir.String,
			Value: &ir.Array{Element: ir.Integer},
		},
	}

	r := singleMethod(t, &GoEmitter{}, m)
	assert.Contains(t, r.Content, "(map[string][]int, error)")
	assert.Contains(t, r.Content, "remote.Map(raw, func(k0 string) (string, error) { return remote.String(k0) }, func(e0 any) ([]int, error) {")
	assert.Contains(t, r.Content, "remote.Slice(e0, func(e1 any) (int, error) { return remote.Int(e1) })")

	r = singleMethod(t, &KotlinEmitter{}, m)
	assert.Contains(t, r.Content, "fun stock(): Map<String, List<Int>> {")
	assert.Contains(t, r.Content, "Remote.map(raw, { k0 -> Remote.string(JsonPrimitive(k0)) }) { e0 -> Remote.list(e0) { e1 -> Remote.int(e1) } }")
	assert.Contains(t, r.Content, "import kotlinx.serialization.json.JsonPrimitive")

	r = singleMethod(t, &DartEmitter{}, m)
	assert.Contains(t, r.Content, "static Future<Map<String, List<int>>> stock() async {")
	assert.Contains(t, r.Content, "Remote.map(raw, (k0) => Remote.toStr(k0), (e0) => Remote.list(e0, (e1) => Remote.toInt(e1)))")
}

func TestSingleMapTypeLiteralUnwrap(t *testing.T) {
	m := &ir.Method{
		Name: "prices",
		Return: &ir.TypeLiteral{Properties: []*ir.Property{
			{Name: "byName", Type: &ir.Map{Key: ir.String, Value: ir.Double}},
		}},
	}

	assert.Contains(t, singleMethod(t, &TypeScriptEmitter{}, m).Content, "Promise<Record<string, number>>")
	assert.Contains(t, singleMethod(t, &PythonEmitter{}, m).Content, "-> dict[str, float]:")
	assert.Contains(t, singleMethod(t, &GoEmitter{}, m).Content, "(map[string]float64, error)")
	assert.Contains(t, singleMethod(t, &KotlinEmitter{}, m).Content, ": Map<String, Double>")
}

func TestTypeLiteral_Inline(t *testing.T) {
	m := &ir.Method{
		Name: "point",
		Return: &ir.TypeLiteral{Properties: []*ir.Property{
			{Name: "x", Type: ir.Double},
			{Name: "label", Type: ir.String, Optional: true},
		}},
	}

	assert.Contains(t, singleMethod(t, &TypeScriptEmitter{}, m).Content, "Promise<{ x: number; label?: string }>")
	assert.Contains(t, singleMethod(t, &JavaScriptEmitter{}, m).Content, "{Promise<{x: number, label: (string|undefined)}>}")
	assert.Contains(t, singleMethod(t, &PythonEmitter{}, m).Content, "-> dict[str, Any]:")

	goOut := singleMethod(t, &GoEmitter{}, m).Content
	assert.Contains(t, goOut, "X     float64 `json:\"x\"`")
	assert.Contains(t, goOut, "remote.Ptr(m[\"label\"], func(e1 any) (string, error) { return remote.String(e1) })")
	_, err := parser.ParseFile(token.NewFileSet(), "svc.go", goOut, parser.AllErrors)
	assert.NoError(t, err)
}

func TestUnresolvedReference_FallsBack(t *testing.T) {
	m := &ir.Method{
		Name:   "haunt",
		Params: []*ir.Param{{Name: "g", Type: &ir.CustomRef{Name: "Ghost"}}},
		Return: &ir.Array{Element: &ir.CustomRef{Name: "Ghost"}},
	}

	tests := []struct {
		e    Emitter
		want string
	}{
		{&TypeScriptEmitter{}, "haunt(g: any): Promise<any[]>"},
		{&PythonEmitter{}, "g: Any) -> list[Any]:"},
		{&GoEmitter{}, "Haunt(ctx context.Context, g any) ([]any, error)"},
		{&KotlinEmitter{}, "fun haunt(g: Any?): List<Any?>"},
		{&DartEmitter{}, "Future<List<dynamic>> haunt(dynamic g)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.e.Language()), func(t *testing.T) {
			r := singleMethod(t, tt.e, m)
			assert.Contains(t, r.Content, tt.want)
			assert.Contains(t, r.Unresolved, "Ghost")
			assert.Empty(t, r.Referenced)
		})
	}
}

func TestUnknownNode_FallsBack(t *testing.T) {
	m := &ir.Method{Name: "odd", Return: &ir.Unknown{Tag: "QuantumType"}}

	assert.Contains(t, singleMethod(t, &TypeScriptEmitter{}, m).Content, "Promise<any>")
	assert.Contains(t, singleMethod(t, &GoEmitter{}, m).Content, "return raw, nil")
	assert.Contains(t, singleMethod(t, &KotlinEmitter{}, m).Content, "return Remote.any(raw)")
}

func TestUnion(t *testing.T) {
	m := &ir.Method{
		Name:   "either",
		Return: &ir.Union{Members: []ir.Node{ir.String, ir.Integer, ir.Double}},
	}

	assert.Contains(t, singleMethod(t, &TypeScriptEmitter{}, m).Content, "Promise<string | number>")
	assert.Contains(t, singleMethod(t, &JavaScriptEmitter{}, m).Content, "{Promise<(string|number)>}")
	assert.Contains(t, singleMethod(t, &PythonEmitter{}, m).Content, "-> str | int | float:")
	assert.Contains(t, singleMethod(t, &GoEmitter{}, m).Content, "(any, error)")
	assert.Contains(t, singleMethod(t, &DartEmitter{}, m).Content, "Future<dynamic>")
}

func TestAlias_Inlined(t *testing.T) {
	alias := &ir.TypeAlias{Name: "Tags", Target: &ir.Array{Element: ir.String}}
	m := &ir.Method{
		Name:   "tags",
		Params: []*ir.Param{{Name: "t", Type: &ir.CustomRef{Name: "Tags"}}},
		Return: ir.Void,
	}

	assert.Contains(t, singleMethod(t, &TypeScriptEmitter{}, m, alias).Content, "tags(t: string[]): Promise<void>")
	assert.Contains(t, singleMethod(t, &GoEmitter{}, m, alias).Content, "Tags(ctx context.Context, t []string) error {")
}

func TestOptionalParameters(t *testing.T) {
	m := &ir.Method{
		Name: "search",
		Params: []*ir.Param{
			{Name: "after", Type: ir.String, Optional: true},
			{Name: "query", Type: ir.String},
			{Name: "limit", Type: ir.Integer, Optional: true, Default: &ir.DefaultValue{Value: "10", Type: ir.KindInteger}},
			{Name: "exact", Type: ir.Boolean, Optional: true},
		},
		Return: ir.Void,
	}

	tests := []struct {
		e    Emitter
		want string
	}{
		{&TypeScriptEmitter{}, "search(after: string | undefined, query: string, limit: number = 10, exact?: boolean): Promise<void>"},
		{&JavaScriptEmitter{}, "search(after, query, limit = 10, exact) {"},
		{&PythonEmitter{}, "def search(cls, after: str | None, query: str, limit: int = 10, exact: bool | None = None) -> None:"},
		{&KotlinEmitter{}, "fun search(after: String?, query: String, limit: Int = 10, exact: Boolean? = null) {"},
		{&DartEmitter{}, "search(String? after, String query, [int limit = 10, bool? exact]) async {"},
		{&GoEmitter{}, "Search(ctx context.Context, after *string, query string, limit *int, exact *bool) error {"},
	}

	for _, tt := range tests {
		t.Run(string(tt.e.Language()), func(t *testing.T) {
			assert.Contains(t, singleMethod(t, tt.e, m).Content, tt.want)
		})
	}

	t.Run("go nil checks", func(t *testing.T) {
		out := singleMethod(t, &GoEmitter{}, m).Content
		assert.Contains(t, out, "if limit != nil {\n\t\targs = append(args, *limit)\n\t} else {\n\t\targs = append(args, 10)\n\t}")
		assert.Contains(t, out, "if exact != nil {\n\t\targs = append(args, *exact)\n\t} else {\n\t\targs = append(args, nil)\n\t}")
		assert.Contains(t, out, "args = append(args, query)")
		assert.Contains(t, out, `_, err := c.remote.Call(ctx, "Svc.search", args...)`)
	})

	t.Run("js jsdoc", func(t *testing.T) {
		out := singleMethod(t, &JavaScriptEmitter{}, m).Content
		assert.Contains(t, out, "@param {number} [limit=10]")
		assert.Contains(t, out, "@param {(boolean|undefined)} [exact]")
	})
}

func TestSyncMethod(t *testing.T) {
	m := &ir.Method{Name: "ping", Return: ir.String}

	assert.Contains(t, singleMethod(t, &PythonEmitter{}, m).Content, "    def ping(cls) -> str:\n        return cls.remote.call(\"Svc.ping\", [])")
	assert.Contains(t, singleMethod(t, &KotlinEmitter{}, m).Content, "    fun ping(): String {\n        val raw = remote.call(\"Svc.ping\", listOf())")
	// TypeScript clients are always async.
	assert.Contains(t, singleMethod(t, &TypeScriptEmitter{}, m).Content, "static async ping(): Promise<string>")
}

func TestDocComments_Neutralised(t *testing.T) {
	m := &ir.Method{Name: "evil", Return: ir.Void, Doc: "first line\nends the comment */ here"}

	ts := singleMethod(t, &TypeScriptEmitter{}, m).Content
	assert.Contains(t, ts, "   * first line\n   * ends the comment * / here\n")
	assert.NotContains(t, ts, "comment */")

	gofile := singleMethod(t, &GoEmitter{}, m).Content
	assert.Contains(t, gofile, "// Evil calls \"Svc.evil\".\n//\n// first line\n")
}

func TestDollarEscaping(t *testing.T) {
	class := &ir.Class{Name: "Pay", Methods: []*ir.Method{{Name: "$charge", Return: ir.Void}}}

	r, err := (&KotlinEmitter{}).EmitClass(class, class.Methods, Options{})
	require.NoError(t, err)
	assert.Contains(t, r.Content, `"Pay.\$charge"`)

	r, err = (&TypeScriptEmitter{}).EmitClass(class, class.Methods, Options{})
	require.NoError(t, err)
	assert.Contains(t, r.Content, `"Pay.$charge"`)
}

func TestEnums_Models(t *testing.T) {
	size := &ir.Enum{Name: "Size", Cases: []ir.EnumCase{{Name: "Small", Value: 1.0}, {Name: "Large", Value: 2.0}}}
	color := &ir.Enum{Name: "Color", Cases: []ir.EnumCase{{Name: "RED", Value: "red"}}}
	decls := []ir.Node{size, color}
	opts := Options{Types: CollectTypes([]*ir.Program{{Body: decls}})}

	goOut, err := (&GoEmitter{}).EmitModels(decls, opts)
	require.NoError(t, err)
	assert.Contains(t, goOut.Content, "type Size int")
	assert.Contains(t, goOut.Content, "SizeSmall Size = 1")
	assert.Contains(t, goOut.Content, "type Color string")
	assert.Contains(t, goOut.Content, `ColorRED Color = "red"`)
	assert.Contains(t, goOut.Content, "v, err := remote.Int(raw)")
	assert.NotContains(t, goOut.Content, `"fmt"`)

	kt, err := (&KotlinEmitter{}).EmitModels(decls, opts)
	require.NoError(t, err)
	assert.Contains(t, kt.Content, "enum class Size(val value: Int) : Remote.Encodable {\n    Small(1),\n    Large(2);\n")
	assert.Contains(t, kt.Content, "enum class Color(val value: String)")

	dart, err := (&DartEmitter{}).EmitModels(decls, opts)
	require.NoError(t, err)
	assert.Contains(t, dart.Content, "enum Size {\n  small(1),\n  large(2);\n")
	assert.Contains(t, dart.Content, "enum Color {\n  red(\"red\");\n")

	ts := singleMethod(t, &TypeScriptEmitter{}, &ir.Method{Name: "size", Return: &ir.CustomRef{Name: "Size"}}, size)
	assert.Contains(t, ts.Content, "export enum Size {\n  Small = 1,\n  Large = 2,\n}")

	py := singleMethod(t, &PythonEmitter{}, &ir.Method{Name: "size", Return: &ir.CustomRef{Name: "Size"}}, size)
	assert.Contains(t, py.Content, "class Size(Enum):\n    Small = 1\n    Large = 2\n")
	assert.Contains(t, py.Content, `return Size(cls.remote.call("Svc.size", []))`)
}

func TestModels_NestedAndOptionalFields(t *testing.T) {
	order := &ir.Struct{
		Name: "Order",
		Doc:  "An order.",
		Shape: &ir.TypeLiteral{Properties: []*ir.Property{
			{Name: "items", Type: &ir.Array{Element: &ir.CustomRef{Name: "Item"}}},
			{Name: "note", Type: ir.String, Optional: true},
			{Name: "placed", Type: ir.Date},
		}},
	}
	decls := []ir.Node{itemStruct(), order}
	opts := Options{PackageName: "example.com/shop", Types: CollectTypes([]*ir.Program{{Body: decls}})}

	goOut, err := (&GoEmitter{}).EmitModels(decls, opts)
	require.NoError(t, err)
	assert.Contains(t, goOut.Content, "\"time\"")
	assert.Contains(t, goOut.Content, "Note   *string   `json:\"note,omitempty\"`")
	assert.Contains(t, goOut.Content, "remote.Slice(m[\"items\"], func(e1 any) (Item, error) { return DecodeItem(e1) })")
	assert.Contains(t, goOut.Content, "// Order is a value exchanged with the backend.\n//\n// An order.\n")
	_, err = parser.ParseFile(token.NewFileSet(), "models.go", goOut.Content, parser.AllErrors)
	assert.NoError(t, err)

	kt, err := (&KotlinEmitter{}).EmitModels(decls, opts)
	require.NoError(t, err)
	assert.Contains(t, kt.Content, "import java.time.Instant")
	assert.Contains(t, kt.Content, "    val note: String? = null,\n")
	assert.Contains(t, kt.Content, "note = Remote.nullable(m[\"note\"]) { e1 -> Remote.string(e1) },")
	assert.Contains(t, kt.Content, "if (note != null) put(\"note\", Remote.encode(note))")

	dart, err := (&DartEmitter{}).EmitModels(decls, opts)
	require.NoError(t, err)
	assert.Contains(t, dart.Content, "  final List<Item> items;\n  final String? note;\n  final DateTime placed;\n")
	assert.Contains(t, dart.Content, "const Order({required this.items, this.note, required this.placed});")
	assert.Contains(t, dart.Content, "if (note != null) \"note\": note,")
}

func TestGoPackageName(t *testing.T) {
	tests := []struct {
		module string
		want   string
	}{
		{"", "sdk"},
		{"github.com/acme/cart-sdk", "cartsdk"},
		{"example.com/v2", "v2"},
		{"example.com/type", "sdk"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, goPackage(Options{PackageName: tt.module}), tt.module)
	}
}

// orderProgram declares a struct and a class that share the name Order, and
// methods whose names collide after case mapping.
func orderProgram() (*ir.Class, *TypeRegistry) {
	order := &ir.Struct{Name: "Order", Shape: &ir.TypeLiteral{Properties: []*ir.Property{{Name: "id", Type: ir.String}}}}
	class := &ir.Class{Name: "Order", Methods: []*ir.Method{
		{Name: "get", Return: &ir.Promise{Inner: &ir.CustomRef{Name: "Order"}}},
		{Name: "Get", Params: []*ir.Param{{Name: "id", Type: ir.String}}, Return: &ir.Promise{Inner: ir.Void}},
		{Name: "remote", Return: &ir.Promise{Inner: ir.Void}},
	}}
	return class, CollectTypes([]*ir.Program{{Body: []ir.Node{order, class}}})
}

// goTopLevelNames returns the package-level identifiers of Go sources and
// the methods per receiver type.
func goTopLevelNames(t *testing.T, sources ...string) ([]string, map[string][]string) {
	t.Helper()

	var names []string
	methods := make(map[string][]string)
	fset := token.NewFileSet()
	for i, src := range sources {
		f, err := parser.ParseFile(fset, fmt.Sprintf("f%d.go", i), src, parser.AllErrors)
		require.NoError(t, err)
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					names = append(names, d.Name.Name)
					continue
				}
				recv := d.Recv.List[0].Type
				if star, ok := recv.(*ast.StarExpr); ok {
					recv = star.X
				}
				typ := recv.(*ast.Ident).Name
				methods[typ] = append(methods[typ], d.Name.Name)
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						names = append(names, s.Name.Name)
					case *ast.ValueSpec:
						for _, n := range s.Names {
							names = append(names, n.Name)
						}
					}
				}
			}
		}
	}
	return names, methods
}

func TestGo_ClassClashingWithDeclaredType(t *testing.T) {
	class, types := orderProgram()
	opts := Options{PackageName: "example.com/shop", Types: types}
	e := &GoEmitter{}

	r, err := e.EmitClass(class, class.Methods, opts)
	require.NoError(t, err)
	models, err := e.EmitModels(types.Decls(), opts)
	require.NoError(t, err)

	assert.Contains(t, r.Content, "type Order_ struct {")
	assert.Contains(t, r.Content, "func NewOrder_(opts ...remote.Option) *Order_ {")
	assert.Contains(t, r.Content, "func (c *Order_) Get(ctx context.Context) (Order, error) {")
	assert.Contains(t, r.Content, "func (c *Order_) Get_2(ctx context.Context, id string) error {")
	assert.Contains(t, r.Content, `c.remote.Call(ctx, "Order.Get", id)`)
	assert.Contains(t, models.Content, "type Order struct {")

	names, methods := goTopLevelNames(t, r.Content, models.Content)
	assert.ElementsMatch(t, []string{"Order", "DecodeOrder", "Order_", "NewOrder_"}, names)
	assert.Equal(t, []string{"Get", "Get_2", "Remote"}, methods["Order_"])
}

func TestClientName_ClashingWithDeclaredType(t *testing.T) {
	class, types := orderProgram()
	opts := Options{PackageName: "example.com/shop", Types: types}

	tests := []struct {
		e      Emitter
		client string
		decl   string
	}{
		{&TypeScriptEmitter{}, "export class Order_ {", "export type Order = {"},
		{&JavaScriptEmitter{}, "export class Order_ {", "@typedef {Object} Order\n"},
		{&PythonEmitter{}, "class Order_:", "class Order(TypedDict):"},
		{&KotlinEmitter{}, "object Order_ {", ""},
		{&DartEmitter{}, "class Order_ {", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.e.Language()), func(t *testing.T) {
			r, err := tt.e.EmitClass(class, class.Methods, opts)
			require.NoError(t, err)
			assert.Contains(t, r.Content, tt.client)
			if tt.decl != "" {
				assert.Contains(t, r.Content, tt.decl)
			}
		})
	}
}

func TestMethodNames_UniqueAfterCaseMapping(t *testing.T) {
	class := &ir.Class{Name: "Svc", Methods: []*ir.Method{
		{Name: "fooBar", Return: ir.Void},
		{Name: "foo_bar", Return: ir.Void},
		{Name: "remote", Return: ir.Void},
	}}

	py, err := (&PythonEmitter{}).EmitClass(class, class.Methods, Options{})
	require.NoError(t, err)
	assert.Contains(t, py.Content, "def foo_bar(cls) -> None:")
	assert.Contains(t, py.Content, "def foo_bar_2(cls) -> None:")
	assert.Contains(t, py.Content, "def remote_2(cls) -> None:")
	assert.Contains(t, py.Content, `cls.remote.call("Svc.foo_bar", [])`)

	ts, err := (&TypeScriptEmitter{}).EmitClass(class, class.Methods, Options{})
	require.NoError(t, err)
	assert.Contains(t, ts.Content, "static async remote_(): Promise<void>")
}

func TestParamNames_UniqueAfterCaseMapping(t *testing.T) {
	m := &ir.Method{
		Name: "snake",
		Params: []*ir.Param{
			{Name: "fooBar", Type: ir.String},
			{Name: "foo_bar", Type: ir.String},
		},
		Return: ir.Void,
	}

	py := singleMethod(t, &PythonEmitter{}, m).Content
	assert.Contains(t, py, "def snake(cls, foo_bar: str, foo_bar_2: str) -> None:")
	assert.Contains(t, py, `cls.remote.call("Svc.snake", [foo_bar, foo_bar_2])`)

	m.Params[1].Name = "fooBar"
	ts := singleMethod(t, &TypeScriptEmitter{}, m).Content
	assert.Contains(t, ts, "static async snake(fooBar: string, fooBar_2: string): Promise<void>")
	assert.Contains(t, ts, "[fooBar, fooBar_2]")
}

func TestPython_ResultConversion(t *testing.T) {
	color := &ir.Enum{Name: "Color", Cases: []ir.EnumCase{{Name: "RED", Value: "red"}}}

	tests := []struct {
		name   string
		result ir.Node
		expect string
	}{
		{"integer", ir.Integer, `return int(cls.remote.call("Svc.get", []))`},
		{"enum list", &ir.Array{Element: &ir.CustomRef{Name: "Color"}}, `return [Color(v0) for v0 in cls.remote.call("Svc.get", [])]`},
		{"integer map", &ir.Map{Key: ir.Integer, Value: ir.Integer}, `return {int(k0): int(v0) for k0, v0 in (cls.remote.call("Svc.get", [])).items()}`},
		{"enum values", &ir.Map{Key: ir.String, Value: &ir.CustomRef{Name: "Color"}}, `return {k0: Color(v0) for k0, v0 in (cls.remote.call("Svc.get", [])).items()}`},
		{"async list", &ir.Promise{Inner: &ir.Array{Element: ir.Integer}}, `return [int(v0) for v0 in await cls.remote.call_async("Svc.get", [])]`},
		{"plain", &ir.Map{Key: ir.String, Value: ir.String}, `return cls.remote.call("Svc.get", [])`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := singleMethod(t, &PythonEmitter{}, &ir.Method{Name: "get", Return: tt.result}, color)
			assert.Contains(t, r.Content, tt.expect)
		})
	}
}

func TestJavaScript_TypedefQuotesPropertyNames(t *testing.T) {
	weird := &ir.Struct{Name: "Weird", Shape: &ir.TypeLiteral{Properties: []*ir.Property{
		{Name: "ok", Type: ir.String},
		{Name: "bad-key", Type: ir.Double},
		{Name: "x-y", Type: ir.String, Optional: true},
	}}}

	r := singleMethod(t, &JavaScriptEmitter{}, &ir.Method{Name: "get", Return: &ir.CustomRef{Name: "Weird"}}, weird)
	assert.Contains(t, r.Content, " * @property {string} ok\n")
	assert.Contains(t, r.Content, ` * @property {number} "bad-key"`+"\n")
	assert.Contains(t, r.Content, ` * @property {string} ["x-y"]`+"\n")
}
