package core

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Minimum policy keys; the first present spelling wins.
var (
	bleedMinKeys  = []string{"bleed_min_in", "min_bleed_in"}
	safetyMinKeys = []string{"safety_min_in", "min_safety_in"}
)

const (
	DefaultMinBleedIn  = 0.125
	DefaultMinSafetyIn = 0.25
)

// Canonical product types.
const (
	ProductBusinessCard = "business_card"
	ProductTrifold      = "trifold"
	ProductPostcard     = "postcard"
	ProductBooklet      = "booklet"
	ProductBanner       = "banner"
	ProductFlyer        = "flyer"
	ProductLabel        = "label"
)

var productPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{ProductBusinessCard, regexp.MustCompile(`business\s*cards?|biz\s*cards?|\bbcards?\b`)},
	{ProductTrifold, regexp.MustCompile(`tri\s*-?\s*fold|brochure|z\s*-?\s*fold|roll\s*-?\s*fold|gate\s*-?\s*fold`)},
	{ProductPostcard, regexp.MustCompile(`post\s*cards?|mailers?|\beddm\b`)},
	{ProductBooklet, regexp.MustCompile(`booklets?|catalogs?|magazines?|saddle\s*-?\s*stitch`)},
	{ProductBanner, regexp.MustCompile(`banners?|vinyl`)},
	{ProductFlyer, regexp.MustCompile(`flyers?|fliers?|leaflets?|sell\s*sheets?`)},
	{ProductLabel, regexp.MustCompile(`labels?|stickers?|decals?`)},
}

// CanonicalProduct maps free-text product names onto the fixed product
// vocabulary. It returns "" when nothing matches.
func CanonicalProduct(text string) string {
	s := strings.ToLower(strings.ReplaceAll(text, "_", " "))
	if strings.TrimSpace(s) == "" {
		return ""
	}
	for _, p := range productPatterns {
		if p.re.MatchString(s) {
			return p.name
		}
	}
	return ""
}

// Resolve applies the shop configuration to job: product preset, press and
// stock rule lookups, then bleed/safety minimums. It mutates and returns job.
// Running it twice with the same config yields the same record.
func Resolve(job *JobRecord, cfg *ShopConfig) *JobRecord {
	if cfg == nil {
		cfg = emptyShop
	}
	if job.Special == nil {
		job.Special = Special{}
	}
	sp := job.Special

	if canonical := CanonicalProduct(job.ProductText()); canonical != "" {
		sp.SetDefault(SpecialProductType, canonical)
		if preset := cfg.Product(canonical); preset != nil {
			sp.SetDefault(SpecialProductPreset, preset)
			if v := presetMeasure(preset, "bleed_in", "bleed"); v != nil && unsetOrZero(job.Bleed) {
				job.Bleed = v
			}
			if v := presetMeasure(preset, "safety_in", "safety"); v != nil && (job.safetyDefaulted || unsetOrZero(job.Safety)) {
				job.Safety = v
				job.safetyDefaulted = false
			}
		}
	}

	if machine := sp.String(SpecialMachine); machine != "" {
		if key, ok := cfg.MatchPress(machine); ok {
			sp.SetDefault(SpecialPress, key)
		}
	}

	if rule, ok := MatchStockRule(cfg.Stocks, job.StockText()); ok {
		sp.SetDefault(SpecialStockRule, rule.Match)
		for _, k := range slices.Sorted(maps.Keys(rule.Params)) {
			sp.SetDefault(k, rule.Params[k])
		}
	}

	adjustments := copyAdjustments(sp[SpecialAdjustments])
	job.Bleed = raiseToMinimum(job.Bleed, policyMinimum(cfg, bleedMinKeys, DefaultMinBleedIn), "bleed_in", adjustments)
	job.Safety = raiseToMinimum(job.Safety, policyMinimum(cfg, safetyMinKeys, DefaultMinSafetyIn), "safety_in", adjustments)

	sp[SpecialAdjustments] = adjustments
	sp[SpecialShop] = cfg
	return job
}

// MatchStockRule returns the first rule whose name contains the stock text or
// is contained by it, ignoring case.
func MatchStockRule(rules []StockRule, stock string) (StockRule, bool) {
	s := strings.ToLower(strings.TrimSpace(stock))
	if s == "" {
		return StockRule{}, false
	}
	for _, rule := range rules {
		m := strings.ToLower(strings.TrimSpace(rule.Match))
		if m == "" {
			continue
		}
		if strings.Contains(s, m) || strings.Contains(m, s) {
			return rule, true
		}
	}
	return StockRule{}, false
}

// MinimumBleed returns the configured bleed minimum.
func MinimumBleed(cfg *ShopConfig) float64 {
	return policyMinimum(cfg, bleedMinKeys, DefaultMinBleedIn)
}

// MinimumSafety returns the configured safety minimum.
func MinimumSafety(cfg *ShopConfig) float64 {
	return policyMinimum(cfg, safetyMinKeys, DefaultMinSafetyIn)
}

func policyMinimum(cfg *ShopConfig, keys []string, fallback float64) float64 {
	if v, ok := cfg.PolicyFloat(keys...); ok {
		return v
	}
	return fallback
}

func raiseToMinimum(value *float64, minimum float64, key string, adjustments map[string]Adjustment) *float64 {
	orig := 0.0
	if value != nil {
		orig = *value
	}
	eff := max(orig, minimum)
	if eff != orig {
		adjustments[key] = Adjustment{From: orig, To: eff, Min: minimum}
	}
	return &eff
}

func copyAdjustments(v any) map[string]Adjustment {
	out := map[string]Adjustment{}
	switch t := v.(type) {
	case map[string]Adjustment:
		maps.Copy(out, t)
	default:
		for key, raw := range asMap(v) {
			rec := asMap(raw)
			from, okF := toFloat(rec["from"])
			to, okT := toFloat(rec["to"])
			minimum, _ := toFloat(rec["min"])
			if okF && okT {
				out[key] = Adjustment{From: from, To: to, Min: minimum}
			}
		}
	}
	return out
}

func presetMeasure(preset map[string]any, keys ...string) *float64 {
	return optNonNegative(first(preset, keys...))
}

func unsetOrZero(f *float64) bool {
	return f == nil || *f == 0
}
