package core

import (
	"maps"
	"slices"
	"strings"
)

// ShopConfig is the resolved shop policy: global policies, product presets,
// press capabilities and stock rules. It is treated as immutable once loaded
// and is shared by reference between jobs.
type ShopConfig struct {
	Policies map[string]any `json:"policies"`
	Products map[string]any `json:"products"`
	Presses  map[string]any `json:"presses"`
	Stocks   []StockRule    `json:"stocks,omitempty"`

	// press key -> category tags (roll, flatbed, sheetfed, ...)
	Categories map[string][]string `json:"categories,omitempty"`
}

// StockRule attaches extra parameters to jobs whose stock matches Match.
type StockRule struct {
	Match  string         `json:"match"`
	Params map[string]any `json:"params,omitempty"`
}

var emptyShop = &ShopConfig{}

// Policy returns the first policy value present under any of keys.
func (c *ShopConfig) Policy(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := lookupPath(c.Policies, k); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// PolicyFloat returns the first policy value under keys that coerces to a number.
// A key that is present but not numeric still wins and reports false.
func (c *ShopConfig) PolicyFloat(keys ...string) (float64, bool) {
	v, ok := c.Policy(keys...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// PolicyString returns the first non-blank string policy under keys.
func (c *ShopConfig) PolicyString(keys ...string) string {
	for _, k := range keys {
		if v, ok := lookupPath(c.Policies, k); ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// PolicyBool reports the boolean policy under key and whether it was set.
func (c *ShopConfig) PolicyBool(key string) (value, set bool) {
	v, ok := lookupPath(c.Policies, key)
	if !ok {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// Product returns the preset for a canonical product name.
func (c *ShopConfig) Product(name string) map[string]any {
	if name == "" {
		return nil
	}
	return asMap(c.Products[name])
}

// Press returns the capability record stored under key.
func (c *ShopConfig) Press(key string) map[string]any {
	return asMap(c.Presses[key])
}

// PressKeys returns the configured press keys in sorted order.
func (c *ShopConfig) PressKeys() []string {
	return slices.Sorted(maps.Keys(c.Presses))
}

// HasCategory reports whether the press under key carries tag.
func (c *ShopConfig) HasCategory(key, tag string) bool {
	return slices.Contains(c.Categories[key], tag)
}

// PressesIn returns the sorted press keys tagged with any of tags.
func (c *ShopConfig) PressesIn(tags ...string) []string {
	var out []string
	for _, key := range c.PressKeys() {
		for _, tag := range tags {
			if c.HasCategory(key, tag) {
				out = append(out, key)
				break
			}
		}
	}
	return out
}

// MatchPress finds the press key for a free-text machine name. An exact key
// match (case-insensitive, spaces and hyphens read as underscores) wins over
// containment in either direction; ties go to the first key in sorted order.
func (c *ShopConfig) MatchPress(machine string) (string, bool) {
	m := pressKey(machine)
	if m == "" {
		return "", false
	}
	keys := c.PressKeys()
	for _, key := range keys {
		if pressKey(key) == m {
			return key, true
		}
	}
	for _, key := range keys {
		k := pressKey(key)
		if strings.Contains(m, k) || strings.Contains(k, m) {
			return key, true
		}
	}
	return "", false
}

func pressKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// lookupPath resolves a dotted path such as "min_text_pt.body_k_only".
func lookupPath(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		node := asMap(cur)
		if node == nil {
			return nil, false
		}
		v, ok := node[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// LookupPath is lookupPath for callers outside the package.
func LookupPath(m map[string]any, path string) (any, bool) {
	return lookupPath(m, path)
}

// Tree returns the config as a nested map for path lookups.
func (c *ShopConfig) Tree() map[string]any {
	if c == nil {
		c = emptyShop
	}
	stocks := make([]any, 0, len(c.Stocks))
	for _, s := range c.Stocks {
		stocks = append(stocks, map[string]any{"match": s.Match, "params": s.Params})
	}
	return map[string]any{
		"policies": c.Policies,
		"products": c.Products,
		"presses":  c.Presses,
		"stocks":   stocks,
	}
}
