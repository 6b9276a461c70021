package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighest(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
	}{
		{"empty", nil, ""},
		{"single", []string{"0.1.0"}, "0.1.0"},
		{"numeric not lexical", []string{"0.9.0", "0.10.0", "0.2.0"}, "0.10.0"},
		{"prerelease below release", []string{"1.0.0-rc.1", "1.0.0"}, "1.0.0"},
		{"garbage ignored", []string{"latest", "1.2.3", "not-a-version"}, "1.2.3"},
		{"keeps original spelling", []string{"v2.0.0", "1.0.0"}, "v2.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Highest(tt.versions))
		})
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, &Run{Package: "cart"}))

	runs, err := r.List(ctx, "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	v, err := r.LastVersion(ctx, "cart", "go")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStore_ImplementsRecorder(t *testing.T) {
	var _ Recorder = (*Store)(nil)
}
