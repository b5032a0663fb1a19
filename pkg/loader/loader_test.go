package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{name: "json object", input: `{"schemes": []}`, want: FormatJSON},
		{name: "pretty json array", input: "[\n  {\n    \"id\": \"s1\"\n  },\n  {\n    \"id\": \"s2\"\n  }\n]", want: FormatJSON},
		{name: "ndjson", input: "{\"id\": 1}\n{\"id\": 2}", want: FormatNDJSON},
		{name: "multi-doc yaml", input: "id: a\n---\nid: b", want: FormatMultiDoc},
		{name: "toml section", input: "[[schemes]]\nid = \"s1\"", want: FormatTOML},
		{name: "toml key values", input: "name = \"x\"\nversion = \"1\"", want: FormatTOML},
		{name: "yaml", input: "schemes:\n  - id: s1", want: FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.input))
		})
	}
}

func TestLoadData(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{name: "single object", input: `{"name": "test", "value": 42}`, wantLen: 1},
		{name: "single array", input: `[1, 2, 3]`, wantLen: 1},
		{name: "yaml", input: "name: test\nvalue: 42", wantLen: 1},
		{name: "ndjson", input: "{\"a\": 1}\n{\"b\": 2}\n\n{\"c\": 3}", wantLen: 3},
		{name: "multi-doc", input: "---\na: 1\n---\nb: 2", wantLen: 2},
		{name: "empty", input: "  \n ", wantErr: true},
		{name: "broken toml", input: "[section]\nkey = ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadData(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestLoadDataEmptyIsSentinel(t *testing.T) {
	_, err := LoadData("")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestInvalidJSONFallsBackToYAML(t *testing.T) {
	got, err := LoadData(`{invalid}`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"invalid": nil}, got[0])
}

func TestNDJSONKeepsPlainLines(t *testing.T) {
	got, err := LoadData("{\"a\": 1}\nplain text\n{\"b\": 2}")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "plain text", got[1])
}

func TestYAMLListIsNotNDJSON(t *testing.T) {
	input := `labels:
  - alpha
  - bravo
  - charlie
  - delta`
	got, err := LoadData(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.IsType(t, map[string]any{}, got[0])
}

func TestLoadRoot(t *testing.T) {
	single, err := LoadRoot(`{"a": 1}`)
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, single)

	multi, err := LoadRoot("a: 1\n---\nb: 2")
	require.NoError(t, err)
	assert.Len(t, multi, 2)
}

func TestLoadReaderAndFile(t *testing.T) {
	got, err := LoadReader(strings.NewReader("id: s1"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "s1"}, got)

	path := filepath.Join(t.TempDir(), "tree.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[schemes]]\nid = \"s1\"\n"), 0o600))
	got, err = LoadFile(path)
	require.NoError(t, err)
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Len(t, m["schemes"], 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDecodeInto(t *testing.T) {
	type item struct {
		ID       string `json:"id"`
		Children []item `json:"children"`
	}
	root, err := LoadRoot("id: root\nchildren:\n  - id: a\n  - id: b\n    children:\n      - id: c")
	require.NoError(t, err)

	var got item
	require.NoError(t, DecodeInto(root, &got))
	assert.Equal(t, item{ID: "root", Children: []item{
		{ID: "a"},
		{ID: "b", Children: []item{{ID: "c"}}},
	}}, got)
}

func TestDecodeIntoTypeMismatch(t *testing.T) {
	var out struct {
		ID int `json:"id"`
	}
	err := DecodeInto(map[string]any{"id": "not a number"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode input")
}

func TestNormalizeKeys(t *testing.T) {
	in := map[any]any{1: []any{map[any]any{"k": "v"}}}
	assert.Equal(t, map[string]any{"1": []any{map[string]any{"k": "v"}}}, normalizeKeys(in))
}
