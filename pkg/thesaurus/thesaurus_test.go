package thesaurus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

func loadFixture(t *testing.T) Document {
	t.Helper()
	doc, err := LoadFile(filepath.Join("testdata", "concept_tree.json"))
	require.NoError(t, err)
	return doc
}

func TestLoadFile(t *testing.T) {
	doc := loadFixture(t)
	require.Len(t, doc.Schemes, 2)
	assert.Equal(t, "scheme-a", doc.Schemes[0].ID)
	require.Len(t, doc.Schemes[0].TopConcepts, 2)
	assert.Len(t, doc.Schemes[0].TopConcepts[0].Narrower, 2)
	assert.Equal(t, Label{Value: "First concept", LanguageID: "en", ValueType: AltLabel},
		doc.Schemes[0].TopConcepts[0].Labels[1])
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{name: "envelope", input: `{"schemes": [{"id": "s1", "labels": []}]}`, want: 1},
		{name: "bare list", input: `[{"id": "s1"}, {"id": "s2"}]`, want: 2},
		{name: "yaml", input: "schemes:\n  - id: s1\n    top_concepts:\n      - id: c1", want: 1},
		{name: "toml", input: "[[schemes]]\nid = \"s1\"\n", want: 1},
		{name: "missing id", input: `{"schemes": [{"labels": []}]}`, wantErr: "has no id"},
		{name: "scalar", input: `42`, wantErr: "expected an object or a list"},
		{name: "empty", input: ``, wantErr: "empty input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, doc.Schemes, tt.want)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPreferredLabel(t *testing.T) {
	labels := []Label{
		{Value: "alt-en", LanguageID: "en", ValueType: AltLabel},
		{Value: "pref-de", LanguageID: "de", ValueType: PrefLabel},
		{Value: "pref-fr", LanguageID: "fr", ValueType: PrefLabel},
		{Value: "pref-en-us", LanguageID: "en-US", ValueType: PrefLabel},
	}
	tests := []struct {
		name       string
		labels     []Label
		lang, sys  string
		want       string
		wantAbsent bool
	}{
		{name: "pref in language by primary subtag", labels: labels, lang: "EN", sys: "fr", want: "pref-en-us"},
		{name: "pref in system language", labels: labels, lang: "es", sys: "fr", want: "pref-fr"},
		{name: "any pref", labels: labels, lang: "es", sys: "it", want: "pref-de"},
		{name: "alt in language", labels: labels[:1], lang: "en", sys: "fr", want: "alt-en"},
		{name: "first as last resort", labels: []Label{{Value: "hidden", ValueType: HiddenLabel}}, lang: "en", want: "hidden"},
		{name: "empty", labels: nil, lang: "en", wantAbsent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PreferredLabel(tt.labels, tt.lang, tt.sys)
			if tt.wantAbsent {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestTreeFromSchemes(t *testing.T) {
	doc := loadFixture(t)
	tree := TreeFromSchemes(doc.Schemes, TreeOptions{Language: "en", SystemLanguage: "en"})

	require.Len(t, tree, 2)
	assert.Equal(t, "Test Scheme", tree[0].Label)
	assert.Equal(t, KindScheme, tree[0].Kind)
	assert.Equal(t, []string{"concept-1", "concept-2"}, []string{tree[0].Children[0].Key, tree[0].Children[1].Key})
	assert.Equal(t, KindConcept, tree[0].Children[0].Kind)
	assert.Equal(t, "Concept 1.2", tree[0].Children[0].Children[1].Label)
	assert.Equal(t, 8, Count(tree))

	_, isScheme := tree[0].Data.(Scheme)
	assert.True(t, isScheme)

	french := TreeFromSchemes(doc.Schemes, TreeOptions{Language: "fr", SystemLanguage: "en"})
	assert.Equal(t, "Schéma de test", french[0].Label)
	assert.Equal(t, "Concept 1", french[0].Children[0].Label)
}

func TestTreeFromSchemesFallsBackToID(t *testing.T) {
	tree := TreeFromSchemes([]Scheme{{ID: "bare"}}, TreeOptions{Language: "en"})
	require.Len(t, tree, 1)
	assert.Equal(t, "bare", tree[0].Label)
	assert.True(t, tree[0].IsLeaf())
}

func TestTreeFromSchemesFocus(t *testing.T) {
	doc := loadFixture(t)
	opts := TreeOptions{Language: "en", SystemLanguage: "en", Focus: "concept-1-2"}
	tree := TreeFromSchemes(doc.Schemes, opts)

	require.Len(t, tree, 1)
	assert.Equal(t, "scheme-a", tree[0].Key)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "concept-1", tree[0].Children[0].Key)
	require.Len(t, tree[0].Children[0].Children, 1)
	focused := tree[0].Children[0].Children[0]
	assert.Equal(t, "concept-1-2", focused.Key)
	require.Len(t, focused.Children, 1)
	assert.Equal(t, "concept-1-2-1", focused.Children[0].Key)

	scheme := TreeFromSchemes(doc.Schemes, TreeOptions{Language: "en", Focus: "scheme-b"})
	require.Len(t, scheme, 1)
	assert.Equal(t, 2, Count(scheme))

	unknown := TreeFromSchemes(doc.Schemes, TreeOptions{Language: "en", Focus: "missing"})
	assert.Len(t, unknown, 2)
}

func TestFindPathAndWalk(t *testing.T) {
	tree := TreeFromSchemes(loadFixture(t).Schemes, TreeOptions{Language: "en"})
	assert.Equal(t, []string{"scheme-a", "concept-1", "concept-1-2", "concept-1-2-1"}, FindPath(tree, "concept-1-2-1"))
	assert.Nil(t, FindPath(tree, "missing"))

	var visited []string
	Walk(tree, func(n treefilter.Node, depth int) bool {
		visited = append(visited, n.Key)
		return depth < 1
	})
	assert.Equal(t, []string{"scheme-a", "concept-1", "concept-2", "scheme-b", "concept-3"}, visited)
}

func TestSearchableTexts(t *testing.T) {
	tree := TreeFromSchemes(loadFixture(t).Schemes, TreeOptions{Language: "en"})
	concept := tree[0].Children[0]

	assert.Equal(t, "concept 1", SearchableText(concept))
	assert.Contains(t, AllLabelsText(concept), "first concept")
	assert.Equal(t, "plain", AllLabelsText(treefilter.Node{Label: "plain"}))

	res := treefilter.Prune(tree, "first", 100, AllLabelsText)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, treefilter.ExpandedKeys{"scheme-a": true}, res.Expanded)

	res = treefilter.Prune(tree, "first", 100, SearchableText)
	assert.Zero(t, res.Matched)
}
