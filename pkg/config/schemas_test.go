package config

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunsenite/bunsenite/pkg/engine"
)

func TestSchemaRegistry_RegisterSchema(t *testing.T) {
	sr := NewSchemaRegistry(cuecontext.New())

	require.NoError(t, sr.RegisterSchema("service", "name: string\nreplicas: int & >=1\n"))
	require.NoError(t, sr.RegisterSchema("alpha", "x: int\n"))

	_, ok := sr.GetSchema("service")
	assert.True(t, ok)
	_, ok = sr.GetSchema("missing")
	assert.False(t, ok)

	_, ok = sr.GetSchema("alpha")
	assert.True(t, ok)

	err := sr.RegisterSchema("broken", "x: {")
	var parseErr *engine.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "broken", parseErr.File)
}

func TestSchemaRegistry_ValidateAgainstSchema(t *testing.T) {
	sr := NewSchemaRegistry(cuecontext.New())
	require.NoError(t, sr.RegisterSchema("service", "name: string\nreplicas: int & >=1\n"))

	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr bool
	}{
		{
			name: "valid",
			data: map[string]interface{}{"name": "api", "replicas": 2},
		},
		{
			name:    "out of range",
			data:    map[string]interface{}{"name": "api", "replicas": 0},
			wantErr: true,
		},
		{
			name:    "missing field",
			data:    map[string]interface{}{"replicas": 1},
			wantErr: true,
		},
		{
			name:    "wrong type",
			data:    map[string]interface{}{"name": 5, "replicas": 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sr.ValidateAgainstSchema("service", tt.data)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, sr.ValidateAgainstSchema("unknown", map[string]interface{}{}))
}
