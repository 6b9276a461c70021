package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int64             `json:"id"`
}

type recorder struct {
	mu   sync.Mutex
	reqs []rpcRequest
}

func (r *recorder) add(req rpcRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) all() []rpcRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rpcRequest(nil), r.reqs...)
}

// newBackend serves a small JSON-RPC backend with a Cart class.
func newBackend(t *testing.T, seen *recorder) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		var in rpcRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if seen != nil {
			seen.add(in)
		}

		w.Header().Set("Content-Type", "application/json")
		out := map[string]any{"jsonrpc": "2.0", "id": in.ID}
		switch in.Method {
		case "Cart.count":
			out["result"] = 3.0
		case "Cart.echo":
			out["result"] = in.Params
		case "Cart.auth":
			out["result"] = req.Header.Get("Authorization")
		default:
			out["error"] = map[string]any{"code": -32601, "message": "method not found", "data": in.Method}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	r.Post("/broken", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Call(t *testing.T) {
	rec := &recorder{}
	srv := newBackend(t, rec)
	c := New(srv.URL + "/")

	raw, err := c.Call(context.Background(), "Cart.count")
	require.NoError(t, err)
	n, err := Int(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = c.Call(context.Background(), "Cart.echo", "a", 1, nil)
	require.NoError(t, err)

	seen := rec.all()
	require.Len(t, seen, 2)
	assert.Equal(t, "2.0", seen[0].JSONRPC)
	assert.Equal(t, "Cart.count", seen[0].Method)
	assert.NotNil(t, seen[0].Params)
	assert.Empty(t, seen[0].Params)
	assert.Less(t, seen[0].ID, seen[1].ID)
	require.Len(t, seen[1].Params, 3)
	assert.JSONEq(t, `"a"`, string(seen[1].Params[0]))
	assert.JSONEq(t, `null`, string(seen[1].Params[2]))
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := newBackend(t, nil)
	c := New(srv.URL + "/")

	_, err := c.Call(context.Background(), "Cart.missing")
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
	assert.Equal(t, "method not found", rpcErr.Message)
	assert.Equal(t, "Cart.missing", rpcErr.Data)
}

func TestClient_HTTPError(t *testing.T) {
	srv := newBackend(t, nil)
	c := New(srv.URL + "/broken")

	_, err := c.Call(context.Background(), "Cart.count")

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, http.StatusBadGateway, rpcErr.Code)
}

func TestClient_Options(t *testing.T) {
	srv := newBackend(t, nil)
	c := New(srv.URL+"/", WithHeader("Authorization", "Bearer t"), WithHTTPClient(srv.Client()))
	assert.Equal(t, srv.URL+"/", c.URL())

	raw, err := c.Call(context.Background(), "Cart.auth")
	require.NoError(t, err)
	assert.Equal(t, "Bearer t", raw)
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := newBackend(t, nil)
	c := New(srv.URL + "/")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Call(ctx, "Cart.count")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInt_Narrowing(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int
		wantErr bool
	}{
		{"integral float", 3.0, 3, false},
		{"fraction truncates", 3.9, 3, false},
		{"negative truncates toward zero", -2.7, -2, false},
		{"numeric string", "42", 42, false},
		{"json number", json.Number("7"), 7, false},
		{"bool", true, 0, true},
		{"nil", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Int(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScalars(t *testing.T) {
	s, err := String("x")
	require.NoError(t, err)
	assert.Equal(t, "x", s)
	_, err = String(1.0)
	assert.Error(t, err)

	f, err := Float(2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	b, err := Bool("true")
	require.NoError(t, err)
	assert.True(t, b)
	_, err = Bool("yes")
	assert.Error(t, err)

	ts, err := Time("2024-05-01T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}

// decodeJSON mirrors what Call returns for a wire payload.
func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestSlice_And_Map(t *testing.T) {
	tags, err := Slice(decodeJSON(t, `["a","b"]`), String)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	stringKey := func(k string) (string, error) { return k, nil }
	intKey := func(k string) (int, error) { return Int(k) }

	stock, err := Map(decodeJSON(t, `{"apple":3.0,"pear":1}`), stringKey, Int)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"apple": 3, "pear": 1}, stock)

	byID, err := Map(decodeJSON(t, `{"1":"one"}`), intKey, String)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "one"}, byID)

	_, err = Slice(decodeJSON(t, `["a",1]`), String)
	assert.ErrorContains(t, err, "[1]")

	none, err := Slice[string](nil, String)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPtr(t *testing.T) {
	p, err := Ptr(nil, Float)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = Ptr(1.5, Float)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1.5, *p)
}

func TestSource_IsThisPackage(t *testing.T) {
	assert.Contains(t, Source, "package remote")
	assert.Contains(t, Source, "func (c *Client) Call(")
}
