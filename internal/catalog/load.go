package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"go.yaml.in/yaml/v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Format is a catalog file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// File is the top-level layout of a catalog file.
type File struct {
	Version string       `mapstructure:"version" json:"version" yaml:"version"`
	Rules   []Definition `mapstructure:"rules" json:"rules" yaml:"rules"`
}

// Default returns the catalog shipped with the binary. It is parsed on first use
// and shared afterwards.
var Default = sync.OnceValues(func() (*Catalog, error) {
	c, err := Parse(defaultCatalog, FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return c, nil
})

// Load reads a catalog file. The format is picked by extension.
func Load(path string) (*Catalog, error) {
	format, err := formatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %q: %w", path, err)
	}

	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("catalog file %q: %w", path, err)
	}

	return c, nil
}

// Parse decodes and validates a catalog.
func Parse(data []byte, format Format) (*Catalog, error) {
	file, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return Build(file.Version, file.Rules)
}

// Decode decodes a catalog file without validating it. Answers may be given as
// a single string or as a list of strings.
func Decode(data []byte, format Format) (*File, error) {
	var raw map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}

	var file File
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		// Turns a lone answer string into a one-element list.
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &file,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return &file, nil
}

// Definitions converts a catalog back to its serialized form.
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, 0, len(c.rules))
	for _, rule := range c.rules {
		switch r := rule.(type) {
		case *Single:
			defs = append(defs, Definition{
				Question:       r.Question(),
				Answer:         r.Expected(),
				Type:           typeOf(r.Polarity()),
				Recommendation: r.Recommendation(),
			})
		case *Group:
			subs := make([]SubDefinition, 0, len(r.predicates))
			for _, p := range r.predicates {
				subs = append(subs, SubDefinition{
					Question: p.Question(),
					Answer:   p.Expected(),
					Type:     typeOf(p.Polarity()),
				})
			}
			defs = append(defs, Definition{
				SetID:          r.ID(),
				Questions:      subs,
				Recommendation: r.Recommendation(),
			})
		}
	}
	return defs
}

// Marshal encodes c in the given file format. The output can be loaded again
// with Parse.
func Marshal(c *Catalog, format Format) ([]byte, error) {
	file := File{Version: c.Version(), Rules: c.Definitions()}

	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(file)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return out, nil
	case FormatJSON:
		out, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
}

func typeOf(p Polarity) string {
	if p == Negative {
		return TypeNegativeChoice
	}
	return ""
}

func formatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported catalog file extension %q", filepath.Ext(path))
	}
}
