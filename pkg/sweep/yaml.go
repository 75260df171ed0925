package sweep

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/simcampaign/pkg/types"
)

type rangeSpec struct {
	Start int `yaml:"start"`
	Stop  int `yaml:"stop"`
	Step  int `yaml:"step"`
}

// UnmarshalYAML decodes a mapping of parameter name to either a sequence of
// scalars or a {start, stop, step} range. Mapping order is the grid order.
//
//	channelWidth: [20]
//	distance: {start: 0, stop: 60, step: 5}
//	useRts: [false]
func (g *Grid) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("sweep: line %d: grid must be a mapping", node.Line)
	}

	grid := make(Grid, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		vals, err := decodeValues(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("sweep: param %q: %w", name, err)
		}
		grid = append(grid, Param{Name: name, Values: vals})
	}
	*g = grid
	return nil
}

// MarshalYAML writes the grid back as an ordered mapping of value lists.
func (g Grid) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range g {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, v := range p.Values {
			var item yaml.Node
			if err := item.Encode(v.Interface()); err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, &item)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Name}, seq)
	}
	return node, nil
}

func decodeValues(node *yaml.Node) ([]types.Value, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		out := make([]types.Value, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: values must be scalars", item.Line)
			}
			var raw any
			if err := item.Decode(&raw); err != nil {
				return nil, err
			}
			v, err := types.Parse(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		var r rangeSpec
		if err := node.Decode(&r); err != nil {
			return nil, err
		}
		return Range(r.Start, r.Stop, r.Step)
	case yaml.ScalarNode:
		var raw any
		if err := node.Decode(&raw); err != nil {
			return nil, err
		}
		v, err := types.Parse(raw)
		if err != nil {
			return nil, err
		}
		return []types.Value{v}, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported value list", node.Line)
	}
}
