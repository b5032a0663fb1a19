package config

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Marshal renders cfg as YAML with each key documented by its yamlcomment
// struct tag.
func Marshal(cfg Config) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	annotate(&doc, reflect.TypeOf(cfg))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func annotate(node *yaml.Node, t reflect.Type) {
	if node.Kind == yaml.DocumentNode {
		for _, c := range node.Content {
			annotate(c, t)
		}
		return
	}
	if node.Kind != yaml.MappingNode {
		return
	}

	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			field, ok := fieldByYAMLName(t, key.Value)
			if !ok {
				continue
			}
			if comment := field.Tag.Get("yamlcomment"); comment != "" {
				key.HeadComment = comment
			}
			annotate(value, field.Type)
		}
	case reflect.Map:
		for i := 1; i < len(node.Content); i += 2 {
			annotate(node.Content[i], t.Elem())
		}
	}
}

func fieldByYAMLName(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if tag == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}
