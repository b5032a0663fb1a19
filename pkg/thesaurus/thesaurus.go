// Package thesaurus models controlled-vocabulary schemes and concepts as
// served by the concept tree endpoint, and shapes them into filterable trees.
package thesaurus

import (
	"fmt"
	"os"
	"strings"

	"github.com/oakwood-commons/lingo/pkg/loader"
)

// Label value types.
const (
	PrefLabel   = "prefLabel"
	AltLabel    = "altLabel"
	HiddenLabel = "hiddenLabel"
)

// Node kinds produced by TreeFromSchemes.
const (
	KindScheme  = "scheme"
	KindConcept = "concept"
)

// Label is one name of a scheme or concept in one language.
type Label struct {
	Value      string `json:"value" yaml:"value"`
	LanguageID string `json:"language_id" yaml:"language_id"`
	ValueType  string `json:"valuetype_id" yaml:"valuetype_id"`
	// Rank orders labels of the same type; higher ranks sort first in search.
	Rank *int `json:"rank,omitempty" yaml:"rank,omitempty"`
}

// Concept is a term with narrower terms below it.
type Concept struct {
	ID       string    `json:"id" yaml:"id"`
	Labels   []Label   `json:"labels" yaml:"labels"`
	Narrower []Concept `json:"narrower,omitempty" yaml:"narrower,omitempty"`
}

// Scheme is the root of a vocabulary hierarchy.
type Scheme struct {
	ID          string    `json:"id" yaml:"id"`
	Labels      []Label   `json:"labels" yaml:"labels"`
	TopConcepts []Concept `json:"top_concepts,omitempty" yaml:"top_concepts,omitempty"`
}

// Document is the concept tree envelope.
type Document struct {
	Schemes []Scheme `json:"schemes" yaml:"schemes"`
}

// Decode parses a concept tree document. Both the {"schemes": [...]}
// envelope and a bare list of schemes are accepted.
func Decode(data []byte) (Document, error) {
	root, err := loader.LoadRoot(string(data))
	if err != nil {
		return Document{}, fmt.Errorf("parse thesaurus: %w", err)
	}
	return fromRoot(root)
}

// LoadFile reads and decodes a concept tree document.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read thesaurus: %w", err)
	}
	return Decode(data)
}

func fromRoot(root any) (Document, error) {
	var doc Document
	switch root.(type) {
	case []any:
		if err := loader.DecodeInto(root, &doc.Schemes); err != nil {
			return Document{}, fmt.Errorf("decode schemes: %w", err)
		}
	case map[string]any:
		if err := loader.DecodeInto(root, &doc); err != nil {
			return Document{}, fmt.Errorf("decode thesaurus: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("decode thesaurus: expected an object or a list, got %T", root)
	}
	for i, s := range doc.Schemes {
		if strings.TrimSpace(s.ID) == "" {
			return Document{}, fmt.Errorf("decode thesaurus: scheme %d has no id", i)
		}
	}
	return doc, nil
}
