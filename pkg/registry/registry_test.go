package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Kinds(t *testing.T) {
	reg := Default()

	want := map[string]Kind{
		"contracts":       KindRead,
		"stats":           KindRead,
		"health":          KindRead,
		"regenerate":      KindWrite,
		"generateInvoice": KindWrite,
		"generateAct":     KindWrite,
		"update":          KindWrite,
	}
	require.Len(t, reg.Actions, len(want))
	for name, kind := range want {
		a, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, a.Kind, name)
	}

	_, ok := reg.Lookup("delete")
	assert.False(t, ok)
	assert.Len(t, reg.Schemas(), len(want))
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing name", `{"actions":[{"kind":"read"}]}`, "without name"},
		{"bad kind", `{"actions":[{"name":"x","kind":"maybe"}]}`, "invalid kind"},
		{"duplicate", `{"actions":[{"name":"x","kind":"read"},{"name":"x","kind":"write"}]}`, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"2","actions":[{"name":"ping","kind":"read"}]}`), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2", reg.Version)
	assert.Empty(t, reg.Schemas())
}
