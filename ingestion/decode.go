package ingestion

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/sift/core"
	"gopkg.in/yaml.v3"
)

const (
	itemsField = "items"
	valueField = "value"
	exactField = "exact"
	nullTag    = "!!null"
)

// Decode reads documents from YAML or JSON.
//
// The top level is either a sequence of items or a mapping whose "items"
// entry is one. A scalar item becomes a document with a single "value"
// attribute. A mapping item yields one attribute per scalar entry in source
// order; an entry of the form {value: ..., exact: true} marks the attribute
// exact, and other nested values are skipped. The "key" entry, or failing
// that "id", becomes the document key.
//
// Empty input decodes to no documents. Documents are not validated.
func Decode(r io.Reader) ([]*core.Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	top := resolve(&root)
	if top.Kind == yaml.DocumentNode {
		if len(top.Content) == 0 {
			return nil, nil
		}
		top = resolve(top.Content[0])
	}

	items, err := itemsNode(top)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, nil
	}

	docs := make([]*core.Document, 0, len(items.Content))
	for _, element := range items.Content {
		doc, err := decodeItem(resolve(element))
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// LoadFile decodes the documents in a YAML or JSON file.
func LoadFile(path string) ([]*core.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	docs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// itemsNode locates the item sequence. A nil node means there are no items.
func itemsNode(top *yaml.Node) (*yaml.Node, error) {
	switch top.Kind {
	case yaml.SequenceNode:
		return top, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(top.Content); i += 2 {
			if top.Content[i].Value != itemsField {
				continue
			}
			items := resolve(top.Content[i+1])
			if isNull(items) {
				return nil, nil
			}
			if items.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("%w: line %d: %q must be a sequence", ErrInvalidFormat, items.Line, itemsField)
			}
			return items, nil
		}
		return nil, fmt.Errorf("%w: line %d: mapping has no %q sequence", ErrInvalidFormat, top.Line, itemsField)
	case yaml.ScalarNode:
		if isNull(top) {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: line %d: expected a sequence of items", ErrInvalidFormat, top.Line)
}

func decodeItem(node *yaml.Node) (*core.Document, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if isNull(node) {
			return nil, nil
		}
		return &core.Document{
			Attributes: []core.Attribute{{Name: valueField, Value: node.Value}},
		}, nil
	case yaml.MappingNode:
		return decodeMapping(node)
	}
	return nil, fmt.Errorf("%w: line %d: item must be a scalar or a mapping", ErrInvalidFormat, node.Line)
}

func decodeMapping(node *yaml.Node) (*core.Document, error) {
	doc := &core.Document{
		Attributes: make([]core.Attribute, 0, len(node.Content)/2),
	}

	var key, id string
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		value := resolve(node.Content[i+1])

		var attr core.Attribute
		switch {
		case value.Kind == yaml.ScalarNode && !isNull(value):
			attr = core.Attribute{Name: name, Value: value.Value}
		case value.Kind == yaml.MappingNode:
			nested, ok, err := decodeNested(name, value)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			attr = nested
		default:
			continue
		}

		switch strings.ToLower(name) {
		case "key":
			key = attr.Value
		case "id":
			id = attr.Value
		}
		doc.Attributes = append(doc.Attributes, attr)
	}

	doc.Key = key
	if doc.Key == "" {
		doc.Key = id
	}
	return doc, nil
}

// decodeNested reads the {value, exact} form. Other mappings are skipped.
func decodeNested(name string, node *yaml.Node) (core.Attribute, bool, error) {
	var value, exact *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case valueField:
			value = resolve(node.Content[i+1])
		case exactField:
			exact = resolve(node.Content[i+1])
		}
	}
	if value == nil || value.Kind != yaml.ScalarNode || isNull(value) {
		return core.Attribute{}, false, nil
	}

	attr := core.Attribute{Name: name, Value: value.Value}
	if exact != nil && !isNull(exact) {
		if err := exact.Decode(&attr.Exact); err != nil {
			return core.Attribute{}, false, fmt.Errorf("%w: line %d: %q of %q must be a boolean", ErrInvalidFormat, exact.Line, exactField, name)
		}
	}
	return attr, true, nil
}

// resolve follows aliases to the anchored node.
func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == nullTag
}
