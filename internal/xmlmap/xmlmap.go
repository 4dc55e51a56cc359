// Package xmlmap extracts job fields from an MIS XML export using a YAML
// mapping of dotted target paths to XPath expressions.
package xmlmap

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"gopkg.in/yaml.v3"

	"printssistant/internal/core"
)

// ErrMalformedXML wraps XML syntax errors.
var ErrMalformedXML = errors.New("malformed xml")

// Mapping maps a dotted job field path (e.g. "trim_size.w_in") to an XPath
// expression.
type Mapping map[string]string

// Targets returns the mapped field paths in sorted order.
func (m Mapping) Targets() []string {
	return slices.Sorted(maps.Keys(m))
}

// ParseMapping decodes a mapping document. Every value must be a string
// expression that compiles as XPath.
func ParseMapping(data []byte, source string) (Mapping, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", source, err)
	}
	out := Mapping{}
	if len(root.Content) == 0 {
		return out, nil
	}
	doc := root.Content[0]
	if doc.Tag == "!!null" {
		return out, nil
	}
	if doc.Kind != yaml.MappingNode {
		return nil, &core.ConfigFormatError{Source: source, Reason: "mapping must be a map of field path to XPath"}
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i].Value, doc.Content[i+1]
		if val.Kind != yaml.ScalarNode || val.Tag != "!!str" {
			return nil, &core.ConfigFormatError{Source: source, Key: key, Reason: "XPath must be a string"}
		}
		expr := strings.TrimSpace(val.Value)
		if expr == "" {
			return nil, &core.ConfigFormatError{Source: source, Key: key, Reason: "XPath is empty"}
		}
		if _, err := xpath.Compile(expr); err != nil {
			return nil, &core.ConfigFormatError{Source: source, Key: key, Reason: fmt.Sprintf("invalid XPath: %v", err)}
		}
		out[key] = expr
	}
	return out, nil
}

// LoadMapping reads a mapping file.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return ParseMapping(data, path)
}

// Extract evaluates every mapping expression against the XML document and
// returns a flat map keyed by the dotted field paths. A single matched node
// becomes its text, no match becomes nil, several matches become a list of
// texts. Numeric results that are NaN become nil.
func Extract(r io.Reader, m Mapping) (map[string]any, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	fields := make(map[string]any, len(m))
	for _, target := range m.Targets() {
		expr, err := xpath.Compile(m[target])
		if err != nil {
			return nil, &core.ConfigFormatError{Key: target, Reason: fmt.Sprintf("invalid XPath: %v", err)}
		}
		fields[target] = flatten(expr.Evaluate(xmlquery.CreateXPathNavigator(doc)))
	}
	return fields, nil
}

func flatten(v any) any {
	switch t := v.(type) {
	case *xpath.NodeIterator:
		var texts []string
		for t.MoveNext() {
			texts = append(texts, strings.TrimSpace(t.Current().Value()))
		}
		switch len(texts) {
		case 0:
			return nil
		case 1:
			return texts[0]
		}
		return texts
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case string:
		return strings.TrimSpace(t)
	}
	return v
}

// ExtractFile is Extract over a file on disk.
func ExtractFile(xmlPath string, m Mapping) (map[string]any, error) {
	f, err := os.Open(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("open xml: %w", err)
	}
	defer f.Close()
	return Extract(f, m)
}

// Load extracts and normalizes a job from an XML export and a mapping file.
func Load(xmlPath, mappingPath string) (*core.JobRecord, error) {
	m, err := LoadMapping(mappingPath)
	if err != nil {
		return nil, err
	}
	fields, err := ExtractFile(xmlPath, m)
	if err != nil {
		return nil, err
	}
	return core.NormalizeFields(fields)
}

// Decode extracts and normalizes a job from an XML stream.
func Decode(r io.Reader, m Mapping) (*core.JobRecord, error) {
	fields, err := Extract(r, m)
	if err != nil {
		return nil, err
	}
	return core.NormalizeFields(fields)
}
