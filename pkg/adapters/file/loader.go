package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/imovia/fluxo/internal/compiler"
	"github.com/imovia/fluxo/pkg/domain"
)

// Loader implements ports.FlowLoader over a directory of flow documents.
// A flow's name is its file name without extension.
type Loader struct {
	dir    string
	parser *compiler.Parser
}

// NewLoader creates a loader reading flows from dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, parser: compiler.NewParser()}
}

// Load finds name with any recognized extension and compiles it.
func (l *Loader) Load(name string) (*domain.Definition, error) {
	for _, ext := range compiler.Extensions {
		path := filepath.Join(l.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, fmt.Errorf("flow not found: %s", name)
}

// List returns the names of all flow documents in the directory, sorted.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || compiler.FormatFor(entry.Name()) == "" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadFile compiles a single flow document. The format follows the extension,
// falling back to content sniffing.
func LoadFile(path string) (*domain.Definition, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	def, err := doc.Definition()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ReadDocument parses a flow document without indexing it.
func ReadDocument(path string) (*compiler.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}
	doc, err := compiler.NewParser().Parse(data, compiler.FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}
