// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	stderrors "referwell-matching/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRegistry = `{
	"version": "1.0.0",
	"lastUpdated": "2026-08-14",
	"algorithms": [
		{
			"name": "hybrid-default",
			"type": "hybrid",
			"isActive": true,
			"vectorWeight": 0.7,
			"bm25Weight": 0.3,
			"structuredBlend": 0.3
		},
		{
			"name": "vector-only",
			"type": "vector_similarity",
			"isActive": false,
			"vectorWeight": 1.0,
			"bm25Weight": 0.0,
			"structuredBlend": 0.3
		}
	]
}`

func TestParseRegistry_Valid(t *testing.T) {
	reg, err := ParseRegistry([]byte(validRegistry))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reg.Version)
	require.Len(t, reg.Algorithms, 2)
	assert.Equal(t, 0.7, reg.Algorithms[0].VectorWeight)
}

func TestParseRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{`},
		{"missing algorithms", `{"version":"1.0.0"}`},
		{"missing name", `{"version":"1","algorithms":[{"type":"hybrid","isActive":true}]}`},
		{"unknown type", `{"version":"1","algorithms":[{"name":"x","type":"neural","isActive":true}]}`},
		{"weight out of range", `{"version":"1","algorithms":[{"name":"x","type":"hybrid","isActive":true,"vectorWeight":1.5}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.data))
			require.Error(t, err)
			assert.Equal(t, stderrors.ErrCodeRegistryInvalid, stderrors.CodeOf(err))
		})
	}
}

func TestLoadRegistry_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(validRegistry), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Algorithms, 2)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRegistry_Active(t *testing.T) {
	reg, err := ParseRegistry([]byte(validRegistry))
	require.NoError(t, err)

	active, err := reg.Active()
	require.NoError(t, err)
	assert.Equal(t, "hybrid-default", active.Name)
}

func TestRegistry_Active_NoneFlagged(t *testing.T) {
	reg := &AlgorithmRegistry{Algorithms: []Algorithm{{Name: "a", IsActive: false}}}
	_, err := reg.Active()
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeAlgorithmNotFound, stderrors.CodeOf(err))
}

func TestRegistry_Find(t *testing.T) {
	reg, err := ParseRegistry([]byte(validRegistry))
	require.NoError(t, err)

	algo, err := reg.Find("vector-only")
	require.NoError(t, err)
	assert.Equal(t, TypeVectorSimilarity, algo.Type)

	_, err = reg.Find("nonexistent")
	assert.Error(t, err)
}

func TestShippedRegistryIsValid(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "configs", "algorithm-registry.json"))
	require.NoError(t, err)

	reg, err := ParseRegistry(data)
	require.NoError(t, err)

	active, err := reg.Active()
	require.NoError(t, err)
	assert.Equal(t, TypeHybrid, active.Type)
}
