package rawmodel

import (
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//ReadDocument parses a raw model serialized as a YAML or JSON mapping of field names to values.
//Scalars become one element vectors, sequences of scalars become typed vectors and
//nested sequences or mappings become (named) lists.
func ReadDocument(data []byte) (*Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "parsing raw model document")
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, errors.New("raw model document is empty")
		}
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("raw model document must be a mapping, line %d", node.Line)
	}
	model, err := decodeNode(node)
	if err != nil {
		return nil, errors.Wrap(err, "decoding raw model document")
	}
	model.context = "raw model"
	for i, item := range model.items {
		item.withContext(model.names[i])
	}
	return model, nil
}

//OpenDocument reads and parses a raw model document file.
func OpenDocument(path string) (*Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading raw model document %s", path)
	}
	model, err := ReadDocument(data)
	if err != nil {
		return nil, errors.Wrapf(err, "raw model document %s", path)
	}
	return model, nil
}

func decodeNode(node *yaml.Node) (*Value, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeNode(node.Alias)
	case yaml.ScalarNode:
		return decodeScalars([]*yaml.Node{node})
	case yaml.MappingNode:
		names := make([]string, 0, len(node.Content)/2)
		items := make([]*Value, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			item, err := decodeNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			names = append(names, node.Content[i].Value)
			items = append(items, item)
		}
		return NewNamedList(names, items)
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return &Value{kind: Null}, nil
		}
		if allScalars(node.Content) {
			return decodeScalars(node.Content)
		}
		items := make([]*Value, len(node.Content))
		for i, child := range node.Content {
			item, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return NewList(items...), nil
	}
	return nil, fmt.Errorf("unsupported yaml node kind %v at line %d", node.Kind, node.Line)
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func allScalars(nodes []*yaml.Node) bool {
	for _, n := range nodes {
		if resolve(n).Kind != yaml.ScalarNode {
			return false
		}
	}
	return true
}

//decodeScalars picks the narrowest vector type that holds every scalar:
//ints, then reals (nulls become NaN), then strings.
func decodeScalars(nodes []*yaml.Node) (*Value, error) {
	resolved := make([]*yaml.Node, len(nodes))
	for i, n := range nodes {
		resolved[i] = resolve(n)
	}
	nodes = resolved
	kind := Int
	for _, n := range nodes {
		switch n.ShortTag() {
		case "!!int", "!!bool":
		case "!!float", "!!null":
			if kind == Int {
				kind = Real
			}
		default:
			kind = String
		}
	}
	switch kind {
	case Int:
		ints := make([]int, len(nodes))
		for i, n := range nodes {
			if err := decodeInt(n, &ints[i]); err != nil {
				return nil, err
			}
		}
		return Ints(ints...), nil
	case Real:
		reals := make([]float64, len(nodes))
		for i, n := range nodes {
			switch n.ShortTag() {
			case "!!null":
				reals[i] = math.NaN()
				continue
			case "!!bool":
				var b int
				if err := decodeInt(n, &b); err != nil {
					return nil, err
				}
				reals[i] = float64(b)
				continue
			}
			if err := n.Decode(&reals[i]); err != nil {
				return nil, errors.Wrapf(err, "line %d", n.Line)
			}
		}
		return Reals(reals...), nil
	}
	strs := make([]string, len(nodes))
	for i, n := range nodes {
		strs[i] = n.Value
	}
	return Strings(strs...), nil
}

func decodeInt(n *yaml.Node, out *int) error {
	if n.ShortTag() == "!!bool" {
		var b bool
		if err := n.Decode(&b); err != nil {
			return errors.Wrapf(err, "line %d", n.Line)
		}
		if b {
			*out = 1
		}
		return nil
	}
	if err := n.Decode(out); err != nil {
		return errors.Wrapf(err, "line %d", n.Line)
	}
	return nil
}
