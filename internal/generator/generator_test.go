package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/sdkgen/internal/emitter"
	"github.com/QTest-hq/sdkgen/pkg/ir"
)

func order() *ir.Struct {
	return &ir.Struct{
		Name: "Order",
		Shape: &ir.TypeLiteral{Properties: []*ir.Property{
			{Name: "id", Type: ir.String},
			{Name: "total", Type: ir.Double},
		}},
	}
}

// classUnit returns a unit declaring Order and a class whose single method
// returns it.
func classUnit(class, method string) Unit {
	return Unit{
		SourceFile: strings.ToLower(class) + ".ts",
		Program: &ir.Program{Body: []ir.Node{
			order(),
			&ir.Class{Name: class, Methods: []*ir.Method{{
				Name:   method,
				Params: []*ir.Param{{Name: "id", Type: ir.String}},
				Return: &ir.Promise{Inner: &ir.CustomRef{Name: "Order"}},
			}}},
		}},
		Config: &ir.ClassConfig{Name: class, Type: ir.TriggerJSONRPC},
	}
}

func httpOnlyUnit() Unit {
	return Unit{
		SourceFile: "hooks.ts",
		Program: &ir.Program{Body: []ir.Node{
			&ir.Class{Name: "Hooks", Methods: []*ir.Method{{Name: "onPush", Return: ir.Void}}},
		}},
		Config: &ir.ClassConfig{
			Name:    "Hooks",
			Type:    ir.TriggerJSONRPC,
			Methods: []ir.MethodConfig{{Name: "onPush", Type: ir.TriggerHTTP}},
		},
	}
}

func paths(files []emitter.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestGenerate_Go(t *testing.T) {
	g := NewGenerator()
	out, err := g.Generate(context.Background(), Input{
		Units:       []Unit{classUnit("Orders", "get"), httpOnlyUnit(), classUnit("Billing", "invoice")},
		Language:    emitter.Go,
		PackageName: "example.com/shop",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"orders.go", "billing.go", "models.go", "remote/remote.go", "go.mod"}, paths(out.Files))

	models := out.Files[2].Content
	assert.Equal(t, 1, strings.Count(models, "type Order struct"))

	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "Hooks", out.Skipped[0].Class)
	assert.Equal(t, "hooks.ts", out.Skipped[0].SourceFile)
	assert.Equal(t, emitter.ErrNoExposedMethods.Error(), out.Skipped[0].Reason)

	assert.Equal(t, []string{"Order"}, out.Duplicates)
	assert.Len(t, out.Classes(), 2)
}

func TestGenerate_InlineTargetsHaveNoModels(t *testing.T) {
	g := NewGenerator()
	for _, lang := range []emitter.Language{emitter.TypeScript, emitter.JavaScript, emitter.Python} {
		t.Run(string(lang), func(t *testing.T) {
			out, err := g.Generate(context.Background(), Input{
				Units:    []Unit{classUnit("Orders", "get")},
				Language: lang,
			})
			require.NoError(t, err)

			for _, f := range out.Files {
				assert.NotContains(t, f.Path, "models", f.Path)
			}
			assert.Contains(t, out.Files[0].Content, "Order")
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator()
	for _, lang := range g.Languages() {
		t.Run(string(lang), func(t *testing.T) {
			in := Input{
				Units:          []Unit{classUnit("Orders", "get"), classUnit("Billing", "invoice"), httpOnlyUnit()},
				Language:       lang,
				PackageName:    "shop",
				PackageVersion: "1.0.0",
			}
			first, err := g.Generate(context.Background(), in)
			require.NoError(t, err)
			second, err := g.Generate(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, first.Files, second.Files)
		})
	}
}

func TestGenerate_SentinelOncePerClassFile(t *testing.T) {
	g := NewGenerator()
	for _, lang := range g.Languages() {
		t.Run(string(lang), func(t *testing.T) {
			out, err := g.Generate(context.Background(), Input{
				Units:    []Unit{classUnit("Orders", "get"), classUnit("Billing", "invoice")},
				Language: lang,
			})
			require.NoError(t, err)

			for _, f := range out.Files {
				want := 0
				if f.Class != "" {
					want = 1
				}
				assert.Equal(t, want, strings.Count(f.Content, emitter.BaseURLSentinel), f.Path)
			}
		})
	}
}

func TestGenerate_PathCollisions(t *testing.T) {
	g := NewGenerator()

	out, err := g.Generate(context.Background(), Input{
		Units:    []Unit{classUnit("Orders", "get"), classUnit("Orders", "list"), classUnit("orders", "find")},
		Language: emitter.TypeScript,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders.sdk.ts", "orders_2.sdk.ts", "orders_3.sdk.ts"}, paths(out.Classes()))

	// The runtime path is reserved before any class claims it.
	out, err = g.Generate(context.Background(), Input{
		Units:    []Unit{classUnit("Remote", "get")},
		Language: emitter.Kotlin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Remote_2.kt", out.Files[0].Path)
	assert.Contains(t, paths(out.Files), "Remote.kt")
}

func TestGenerate_Errors(t *testing.T) {
	g := NewGenerator()

	_, err := g.Generate(context.Background(), Input{Units: []Unit{classUnit("Orders", "get")}, Language: "cobol"})
	assert.ErrorIs(t, err, ErrUnknownLanguage)

	_, err = g.Generate(context.Background(), Input{
		Units:    []Unit{httpOnlyUnit(), {SourceFile: "types.ts", Program: &ir.Program{Body: []ir.Node{order()}}}},
		Language: emitter.Go,
	})
	assert.ErrorIs(t, err, ErrNoClasses)

	_, err = g.Generate(context.Background(), Input{
		Units:          []Unit{classUnit("Orders", "get")},
		Language:       emitter.Go,
		PackageVersion: "latest",
	})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx, Input{Units: []Unit{classUnit("Orders", "get")}, Language: emitter.Go})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_Unresolved(t *testing.T) {
	u := classUnit("Orders", "get")
	u.Program.Body = u.Program.Body[1:]

	out, err := NewGenerator().Generate(context.Background(), Input{Units: []Unit{u}, Language: emitter.Go})
	require.NoError(t, err)
	assert.Equal(t, []string{"Order"}, out.Unresolved)
	assert.Equal(t, []string{"orders.go", "remote/remote.go", "go.mod"}, paths(out.Files))
}

func TestPathSet(t *testing.T) {
	s := newPathSet()
	s.reserve("remote.py")

	assert.Equal(t, "remote_2.py", s.claim("remote.py"))
	assert.Equal(t, "Remote_3.py", s.claim("Remote.py"))
	assert.Equal(t, "pkg/a_2.sdk.ts", func() string { s.claim("pkg/a.sdk.ts"); return s.claim("pkg/a.sdk.ts") }())
	assert.Equal(t, "noext_2", func() string { s.claim("noext"); return s.claim("noext") }())
}
