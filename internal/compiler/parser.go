package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format selects the decoder used by Parser.
type Format string

const (
	// FormatAuto sniffs the first non-blank byte: '{' means JSON, anything else YAML.
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Parser is responsible for converting raw bytes into a Graph.
type Parser struct {
	format Format
}

// NewParser creates a new parser instance that detects the format of each document.
func NewParser() *Parser {
	return &Parser{}
}

// NewParserFor creates a parser bound to one format.
func NewParserFor(format Format) *Parser {
	return &Parser{format: format}
}

// Parse decodes a flow document (JSON as exported by the editor, or YAML).
// Node ids are required; everything else is checked by schema.ValidateGraph.
func (p *Parser) Parse(data []byte) (*domain.Graph, error) {
	format := p.format
	if format == FormatAuto {
		format = detect(data)
	}

	var (
		g   *domain.Graph
		err error
	)
	switch format {
	case FormatJSON:
		g = &domain.Graph{}
		err = json.Unmarshal(data, g)
	case FormatYAML:
		var m map[string]any
		if err = yaml.Unmarshal(data, &m); err == nil {
			g, err = FromMap(m)
		}
	default:
		return nil, fmt.Errorf("unsupported flow format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}

	for i, n := range g.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node #%d missing ID", i)
		}
	}
	return g, nil
}

func detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

type rawNode struct {
	ID       string           `mapstructure:"id"`
	Type     domain.NodeKind  `mapstructure:"type"`
	ParentID string           `mapstructure:"parentId"`
	Position *domain.Position `mapstructure:"position"`
	Data     map[string]any   `mapstructure:"data"`
}

type rawGraph struct {
	ID          string        `mapstructure:"id"`
	Name        string        `mapstructure:"name"`
	Description string        `mapstructure:"description"`
	Nodes       []rawNode     `mapstructure:"nodes"`
	Edges       []domain.Edge `mapstructure:"edges"`
}

// FromMap builds a Graph from a generic map, as produced by YAML decoding or by
// Loam front matter. Node payloads are decoded into the struct matching their type.
func FromMap(m map[string]any) (*domain.Graph, error) {
	var raw rawGraph
	if err := decode(m, &raw); err != nil {
		return nil, err
	}

	g := &domain.Graph{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Nodes:       make([]domain.Node, 0, len(raw.Nodes)),
		Edges:       raw.Edges,
	}
	for _, rn := range raw.Nodes {
		n := domain.Node{ID: rn.ID, Type: rn.Type, ParentID: rn.ParentID, Position: rn.Position}
		data, err := domain.NewNodeData(rn.Type)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", rn.ID, err)
		}
		if rn.Data != nil {
			if err := decode(rn.Data, data); err != nil {
				return nil, fmt.Errorf("node %q: %w", rn.ID, err)
			}
		}
		n.Data = data
		g.Nodes = append(g.Nodes, n)
	}
	return g, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: false,
		DecodeHook:       normalizeKeys,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// normalizeKeys converts map[any]any (older YAML decoders) into map[string]any so that
// nested values such as option values and default literals stay JSON-shaped.
func normalizeKeys(from reflect.Type, _ reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Map {
		return data, nil
	}
	return stringKeys(data), nil
}

func stringKeys(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = stringKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = stringKeys(val)
		}
		return out
	}
	return v
}
