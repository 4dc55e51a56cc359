// Package checklist renders the shop's config-driven prepress checklist for a
// job. Items may be hidden by a show_if condition and their labels may embed
// {path} placeholders resolved against the job or, with a "shop." prefix,
// against the shop config.
package checklist

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"printssistant/internal/core"
	"printssistant/pkg/utils"
)

const (
	shopPrefix     = "shop."
	defaultSection = "Checklist"
	defaultLabel   = "Checklist item"
	missingValue   = "-"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Item is one configured checklist entry.
type Item struct {
	ID             string `yaml:"id"`
	Label          string `yaml:"label"`
	ShowIf         string `yaml:"show_if"`
	Help           string `yaml:"help"`
	DefaultChecked bool   `yaml:"default_checked"`
}

// Section groups items under a heading.
type Section struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

// Config is the parsed checklists.yml.
type Config struct {
	Sections []Section `yaml:"sections"`
	// Hash identifies the source document; it changes whenever the file does.
	Hash string `yaml:"-"`
}

// Parse decodes a checklist document. An empty document is an empty config.
func Parse(data []byte, source string) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &core.ConfigFormatError{Source: source, Reason: err.Error()}
	}
	cfg := &Config{Hash: utils.HashString(string(data))}
	if raw == nil || raw["sections"] == nil {
		return cfg, nil
	}
	if _, ok := raw["sections"].([]any); !ok {
		return nil, &core.ConfigFormatError{Source: source, Key: "sections", Reason: "expected a list"}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &core.ConfigFormatError{Source: source, Key: "sections", Reason: err.Error()}
	}
	return cfg, nil
}

// Load reads path. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checklist: %w", err)
	}
	return Parse(data, path)
}

// RenderedItem is a visible checklist entry for one job.
type RenderedItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Help    string `json:"help,omitempty"`
	Checked bool   `json:"checked"`
}

// RenderedSection is a section with at least one visible item.
type RenderedSection struct {
	Name  string         `json:"name"`
	Items []RenderedItem `json:"items"`
}

// Checklist is the rendered checklist for one job.
type Checklist struct {
	Key      string            `json:"key"`
	Sections []RenderedSection `json:"sections"`
	Total    int               `json:"total"`
}

// Render evaluates the checklist for job. Sections whose items are all hidden
// are omitted. Key fingerprints the job, tips and config so dashboards know
// when to reset saved check state.
func (c *Config) Render(job *core.JobRecord, tips []string) Checklist {
	out := Checklist{Sections: []RenderedSection{}}
	env := newEnv(job)
	for _, sec := range c.Sections {
		rs := RenderedSection{Name: orDefault(sec.Name, defaultSection)}
		for _, it := range sec.Items {
			if !env.show(it.ShowIf) {
				continue
			}
			label := orDefault(it.Label, defaultLabel)
			id := strings.TrimSpace(it.ID)
			if id == "" {
				id = utils.ShortHash(label)
			}
			rs.Items = append(rs.Items, RenderedItem{
				ID:      id,
				Label:   env.format(label),
				Help:    strings.TrimSpace(it.Help),
				Checked: it.DefaultChecked,
			})
		}
		if len(rs.Items) == 0 {
			continue
		}
		out.Total += len(rs.Items)
		out.Sections = append(out.Sections, rs)
	}
	parts := append([]string{c.Hash, fmt.Sprint(job.Fields())}, tips...)
	out.Key = utils.Fingerprint(parts...)
	return out
}

type env struct {
	job  map[string]any
	shop map[string]any
}

func newEnv(job *core.JobRecord) env {
	return env{job: job.Fields(), shop: job.Shop().Tree()}
}

func (e env) lookup(path string) any {
	path = strings.TrimSpace(path)
	root := e.job
	if rest, ok := strings.CutPrefix(path, shopPrefix); ok {
		root, path = e.shop, rest
	}
	v, _ := core.LookupPath(root, path)
	return v
}

// show evaluates "path" (truthy) or "path == 'value'".
func (e env) show(expr string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	if left, right, ok := strings.Cut(expr, "=="); ok {
		want := strings.Trim(strings.TrimSpace(right), `'"`)
		return formatValue(e.lookup(left)) == want
	}
	return truthy(e.lookup(expr))
}

func (e env) format(label string) string {
	out := placeholder.ReplaceAllStringFunc(label, func(m string) string {
		v := e.lookup(m[1 : len(m)-1])
		if v == nil {
			return missingValue
		}
		return formatValue(v)
	})
	return core.ASCIITip(out)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(math.Round(t*1e4)/1e4, 'f', -1, 64)
	case float32:
		return formatValue(float64(t))
	}
	return cast.ToString(v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return strings.TrimSpace(t) != ""
	case map[string]any:
		return len(t) > 0
	case core.Special:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0
	}
	return true
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
