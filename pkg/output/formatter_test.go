package output

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/bunsenite/bunsenite/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleValue() engine.Value {
	return map[string]any{
		"name":    "web",
		"port":    int64(8080),
		"ratio":   0.75,
		"enabled": true,
		"tags":    []any{"a", "b", "<c&d>"},
		"owner":   nil,
		"nested": map[string]any{
			"empty_list": []any{},
			"empty_obj":  map[string]any{},
		},
	}
}

func TestFormatCompact(t *testing.T) {
	got, err := Format(map[string]any{"b": int64(1), "a": []any{true, nil}}, false)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[true,null],"b":1}`, got)
	assert.NotContains(t, got, "\n")
}

func TestFormatPretty(t *testing.T) {
	got, err := Format(map[string]any{"b": int64(1), "a": "x"}, true)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"x\",\n  \"b\": 1\n}", got)
}

func TestFormatRoundTrip(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		got, err := Format(sampleValue(), pretty)
		require.NoError(t, err)

		var decoded any
		require.NoError(t, json.Unmarshal([]byte(got), &decoded))

		want, err := json.Marshal(sampleValue())
		require.NoError(t, err)
		assert.JSONEq(t, string(want), got, "pretty=%v", pretty)
	}
}

func TestFormatDoesNotEscapeHTML(t *testing.T) {
	got, err := Format("<a&b>", false)
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, got)
}

func TestFormatUnrepresentable(t *testing.T) {
	tests := []struct {
		name    string
		value   engine.Value
		wantMsg string
	}{
		{
			name:    "NaN",
			value:   math.NaN(),
			wantMsg: "non-finite number NaN at $",
		},
		{
			name:    "nested +Inf",
			value:   map[string]any{"limits": []any{1.0, math.Inf(1)}},
			wantMsg: "non-finite number +Inf at $.limits[1]",
		},
		{
			name:    "float32 -Inf",
			value:   []any{float32(math.Inf(-1))},
			wantMsg: "non-finite number -Inf at $[0]",
		},
		{
			name:    "non-string keys",
			value:   map[int]any{1: "one"},
			wantMsg: "unsupported map key type int at $",
		},
		{
			name:    "channel",
			value:   map[string]any{"c": make(chan int)},
			wantMsg: "unsupported value of type chan int at $.c",
		},
		{
			name:    "function",
			value:   []any{func() {}},
			wantMsg: "unsupported value of type func() at $[0]",
		},
		{
			name:    "bad json.Number",
			value:   json.Number("12abc"),
			wantMsg: `invalid number "12abc" at $`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, pretty := range []bool{false, true} {
				got, err := Format(tt.value, pretty)
				require.Error(t, err)
				assert.Empty(t, got)

				var serErr *engine.SerializationError
				require.ErrorAs(t, err, &serErr)
				assert.Equal(t, tt.wantMsg, serErr.Message)
				assert.False(t, engine.IsRecoverable(err))
			}
		})
	}
}

func TestRenderYAML(t *testing.T) {
	got, err := Render(sampleValue(), Options{Format: FormatYAML})
	require.NoError(t, err)
	assert.Contains(t, got, "name: web")
	assert.Contains(t, got, "port: 8080")
	assert.False(t, strings.HasSuffix(got, "\n"))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(got), &decoded))
	assert.Equal(t, "web", decoded["name"])
	assert.Equal(t, 8080, decoded["port"])
}

func TestRenderYAMLRejectsNonFinite(t *testing.T) {
	_, err := Render(map[string]any{"x": math.Inf(1)}, Options{Format: FormatYAML})
	var serErr *engine.SerializationError
	assert.ErrorAs(t, err, &serErr)
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render("x", Options{Format: "toml"})
	var inputErr *engine.InvalidInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Message, "toml")
}

func TestRenderDefaultsToJSON(t *testing.T) {
	got, err := Render([]any{int64(1), "two"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, `[1,"two"]`, got)
}
