package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Shop config file names inside a config directory.
const (
	PoliciesFile = "policies.yml"
	ProductsFile = "product_presets.yml"
	PressesFile  = "press_capabilities.yml"
	StocksFile   = "stocks.yml"
)

// press capability groups and the category tag each implies
var pressGroups = []struct{ key, tag string }{
	{"presses", ""},
	{"roll_printers", "roll"},
	{"flatbed_printers", "flatbed"},
	{"sheetfed_presses", "sheetfed"},
	{"digital_presses", "digital"},
	{"offset_presses", "offset"},
}

// ParseShopConfig parses a single YAML document holding the policies,
// products, presses and stocks sections. Missing sections are empty.
func ParseShopConfig(data []byte) (*ShopConfig, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse shop config: %w", err)
	}
	doc, err := mappingNode(&root, "shop config")
	if err != nil {
		return nil, err
	}
	sections := map[string]*yaml.Node{}
	if doc != nil {
		for i := 0; i+1 < len(doc.Content); i += 2 {
			sections[doc.Content[i].Value] = doc.Content[i+1]
		}
	}
	return buildShopConfig(sections["policies"], sections["products"], sections["presses"], sections["stocks"])
}

// LoadShopConfig reads the shop config files from dir. Missing files are empty sections.
func LoadShopConfig(dir string) (*ShopConfig, error) {
	nodes := make([]*yaml.Node, 0, 4)
	for _, name := range []string{PoliciesFile, ProductsFile, PressesFile, StocksFile} {
		node, err := readYAMLNode(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	// product_presets.yml and stocks.yml may wrap their content in a same-named key
	products := unwrapSection(nodes[1], "products")
	stocks := unwrapSection(nodes[3], "stocks")
	cfg, err := buildShopConfig(nodes[0], products, nodes[2], stocks)
	if err != nil {
		var cfe *ConfigFormatError
		if errors.As(err, &cfe) && cfe.Source == "" {
			cfe.Source = dir
		}
		return nil, err
	}
	return cfg, nil
}

func readYAMLNode(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	return root.Content[0], nil
}

func buildShopConfig(policiesN, productsN, pressesN, stocksN *yaml.Node) (*ShopConfig, error) {
	cfg := &ShopConfig{
		Policies:   map[string]any{},
		Products:   map[string]any{},
		Presses:    map[string]any{},
		Categories: map[string][]string{},
	}

	if err := decodeMapping(policiesN, "policies", &cfg.Policies); err != nil {
		return nil, err
	}

	if err := decodeMapping(productsN, "products", &cfg.Products); err != nil {
		return nil, err
	}
	if err := requireNested(cfg.Products, "products"); err != nil {
		return nil, err
	}

	if err := loadPresses(cfg, pressesN); err != nil {
		return nil, err
	}

	rules, err := parseStockRules(stocksN)
	if err != nil {
		return nil, err
	}
	cfg.Stocks = rules
	return cfg, nil
}

func loadPresses(cfg *ShopConfig, node *yaml.Node) error {
	raw := map[string]any{}
	if err := decodeMapping(node, "presses", &raw); err != nil {
		return err
	}
	grouped := false
	for _, g := range pressGroups {
		if _, ok := raw[g.key]; ok {
			grouped = true
		}
	}
	if !grouped {
		raw = map[string]any{"presses": raw}
	}
	for _, g := range pressGroups {
		group, ok := raw[g.key]
		if !ok || group == nil {
			continue
		}
		members := asMap(group)
		if members == nil {
			return formatErr(g.key, "expected a mapping of press records, got %T", group)
		}
		if err := requireNested(members, g.key); err != nil {
			return err
		}
		for key, rec := range members {
			cfg.Presses[key] = rec
			cfg.Categories[key] = mergeTags(cfg.Categories[key], g.tag, asMap(rec))
		}
	}
	return nil
}

func mergeTags(tags []string, groupTag string, rec map[string]any) []string {
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	add(groupTag)
	if s, ok := rec["category"].(string); ok {
		add(s)
	}
	if list, ok := rec["categories"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

// parseStockRules keeps configuration order: first matching rule wins.
func parseStockRules(node *yaml.Node) ([]StockRule, error) {
	if node == nil || node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	var rules []StockRule
	switch node.Kind {
	case yaml.SequenceNode:
		for i, item := range node.Content {
			var rec map[string]any
			if item.Kind != yaml.MappingNode {
				return nil, formatErr(fmt.Sprintf("stocks[%d]", i), "expected a mapping")
			}
			if err := item.Decode(&rec); err != nil {
				return nil, fmt.Errorf("decode stocks[%d]: %w", i, err)
			}
			match, _ := toText(first(rec, "match", "name"))
			if match == "" {
				return nil, formatErr(fmt.Sprintf("stocks[%d]", i), "rule needs a match or name")
			}
			delete(rec, "match")
			delete(rec, "name")
			rules = append(rules, StockRule{Match: match, Params: rec})
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			name, val := node.Content[i].Value, node.Content[i+1]
			if val.Kind != yaml.MappingNode && !isNull(val) {
				return nil, formatErr("stocks."+name, "expected a mapping of rule parameters")
			}
			var params map[string]any
			if err := val.Decode(&params); err != nil {
				return nil, fmt.Errorf("decode stocks.%s: %w", name, err)
			}
			rules = append(rules, StockRule{Match: name, Params: params})
		}
	default:
		return nil, formatErr("stocks", "expected a list or mapping of stock rules")
	}
	return rules, nil
}

func decodeMapping(node *yaml.Node, name string, out *map[string]any) error {
	if node == nil || isNull(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return formatErr(name, "expected a mapping")
	}
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if m != nil {
		*out = m
	}
	return nil
}

// requireNested rejects a mapping-of-scalars where a mapping-of-mappings is required.
func requireNested(m map[string]any, name string) error {
	for key, v := range m {
		if v != nil && asMap(v) == nil {
			return formatErr(name+"."+key, "expected a mapping, got %T", v)
		}
	}
	return nil
}

func mappingNode(root *yaml.Node, name string) (*yaml.Node, error) {
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	if isNull(doc) {
		return nil, nil
	}
	if doc.Kind != yaml.MappingNode {
		return nil, &ConfigFormatError{Source: name, Reason: "expected a mapping document"}
	}
	return doc, nil
}

func unwrapSection(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return node
	}
	if node.Content[0].Value == key {
		return node.Content[1]
	}
	return node
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
