package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imovia/fluxo/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a flow document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Extensions lists the file extensions recognized as flow documents.
var Extensions = []string{".json", ".yaml", ".yml"}

// Document is the on-disk shape of a flow: the editor export plus optional metadata.
type Document struct {
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []domain.Node `json:"nodes" yaml:"nodes"`
	Edges       []domain.Edge `json:"edges" yaml:"edges"`
}

// Parser converts raw bytes into a flow definition.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// FormatFor maps a file path to its format. Unknown extensions fall back to
// sniffing the content in Parse.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}

// Parse decodes data into a document. An empty format is sniffed: content
// starting with '{' is JSON, anything else YAML.
func (p *Parser) Parse(data []byte, format Format) (*Document, error) {
	if format == "" {
		format = sniff(data)
	}

	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse flow json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse flow yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported flow format %q", format)
	}

	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("flow has no nodes")
	}
	return &doc, nil
}

// Compile parses data and builds the indexed definition.
func (p *Parser) Compile(data []byte, format Format) (*domain.Definition, error) {
	doc, err := p.Parse(data, format)
	if err != nil {
		return nil, err
	}
	return doc.Definition()
}

// Definition builds the indexed flow graph from the document.
func (d *Document) Definition() (*domain.Definition, error) {
	return domain.NewDefinition(d.Nodes, d.Edges)
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}
