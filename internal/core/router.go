package core

import (
	"regexp"
	"slices"
	"strings"
)

// Intent names, listed in routing priority order.
const (
	IntentDocSetup    = "doc_setup"
	IntentColorPolicy = "color_policy"
	IntentFoldMath    = "fold_math"
	IntentWideFormat  = "wide_format"
	IntentSpot        = "spot"
	IntentMinSpecs    = "min_specs"
)

var intentOrder = []string{
	IntentDocSetup,
	IntentColorPolicy,
	IntentFoldMath,
	IntentWideFormat,
	IntentSpot,
	IntentMinSpecs,
}

var (
	colorKeywords    = []string{"color", "cmyk", "rgb", "icc", "rich black", "ink", "tac", "ink coverage"}
	foldKeywords     = []string{"fold", "trifold", "tri-fold", "z-fold", "roll fold", "brochure", "gatefold", "accordion"}
	spotKeywords     = []string{"pantone", "spot", "white ink", "pms"}
	minSpecsKeywords = []string{"hairline", "small text", "tiny type", "min spec", "minimum spec"}
	forceFoldPhrase  = "force fold"

	wideTextPattern = regexp.MustCompile(`\b(banners?|posters?|signs?|signage|vinyl|polyester)\b`)
)

// RouterConfig holds the thresholds and device lists used for routing.
type RouterConfig struct {
	// FoldMinLongEdgeIn gates fold_math on small formats.
	FoldMinLongEdgeIn float64
	// WideMinLongEdgeIn is the size fallback for wide_format when no machine is declared.
	WideMinLongEdgeIn float64
	// WideMachineMinWidthIn marks a press as wide-format by its max_width_in.
	WideMachineMinWidthIn float64
	// StrictMachineGate disables the size/keyword fallback entirely.
	StrictMachineGate bool
	// MLMinConfidence is the confidence needed for a predicted label to add an intent.
	MLMinConfidence float64

	RollPrinters    []string
	FlatbedPrinters []string
}

// DefaultRouterConfig returns the stock thresholds.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		FoldMinLongEdgeIn:     10.5,
		WideMinLongEdgeIn:     24,
		WideMachineMinWidthIn: 24,
		MLMinConfidence:       0.65,
	}
}

// WithShop returns a copy of c whose device lists include the roll and
// flatbed printers configured in shop.
func (c RouterConfig) WithShop(shop *ShopConfig) RouterConfig {
	if shop == nil {
		return c
	}
	c.RollPrinters = appendUnique(slices.Clone(c.RollPrinters), shop.PressesIn("roll")...)
	c.FlatbedPrinters = appendUnique(slices.Clone(c.FlatbedPrinters), shop.PressesIn("flatbed")...)
	return c
}

// Prediction is an optional weak signal from a label classifier.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Router decides which advisory skills apply to a job.
type Router struct {
	cfg RouterConfig
}

// NewRouter creates a router with an explicit configuration.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{cfg: cfg}
}

// Config returns the router configuration.
func (r *Router) Config() RouterConfig { return r.cfg }

// DetectIntents returns the applicable intents for job and message in fixed
// priority order. doc_setup is always first. pred may be nil.
func (r *Router) DetectIntents(job *JobRecord, message string, pred *Prediction) []string {
	msg := strings.ToLower(message)
	fired := map[string]bool{IntentDocSetup: true}

	if containsAny(msg, colorKeywords) {
		fired[IntentColorPolicy] = true
	}

	foldAsked := containsAny(msg, foldKeywords) || r.isFoldProduct(job)
	if pred != nil && pred.Confidence >= r.cfg.MLMinConfidence {
		switch pred.Label {
		case ProductTrifold, "brochure":
			foldAsked = true
		}
	}
	if foldAsked && (strings.Contains(msg, forceFoldPhrase) || r.passesFoldGate(job)) {
		fired[IntentFoldMath] = true
	}

	if r.isWideFormat(job, pred) {
		fired[IntentWideFormat] = true
	}
	if containsAny(msg, spotKeywords) {
		fired[IntentSpot] = true
	}
	if containsAny(msg, minSpecsKeywords) {
		fired[IntentMinSpecs] = true
	}

	intents := make([]string, 0, len(fired))
	for _, name := range intentOrder {
		if fired[name] {
			intents = append(intents, name)
		}
	}
	return intents
}

// IsWideMachine reports whether machine names a roll or flatbed device, or a
// press whose capability record marks it as wide-format.
func (r *Router) IsWideMachine(shop *ShopConfig, machine string) bool {
	m := pressKey(machine)
	if m == "" {
		return false
	}
	for _, name := range slices.Concat(r.cfg.RollPrinters, r.cfg.FlatbedPrinters) {
		if pressKey(name) == m {
			return true
		}
	}
	if shop == nil {
		return false
	}
	key, ok := shop.MatchPress(machine)
	if !ok {
		return false
	}
	for _, tag := range []string{"roll", "flatbed", "wide_format", "wide"} {
		if shop.HasCategory(key, tag) {
			return true
		}
	}
	if w, ok := toFloat(shop.Press(key)["max_width_in"]); ok && r.cfg.WideMachineMinWidthIn > 0 {
		return w >= r.cfg.WideMachineMinWidthIn
	}
	return false
}

func (r *Router) isWideFormat(job *JobRecord, pred *Prediction) bool {
	if machine := job.Machine(); machine != "" {
		return r.IsWideMachine(job.Shop(), machine)
	}
	if r.cfg.StrictMachineGate {
		return false
	}
	text := strings.ToLower(job.ProductText() + " " + job.StockText())
	if wideTextPattern.MatchString(text) {
		return true
	}
	if r.cfg.WideMinLongEdgeIn > 0 && job.LongEdge() >= r.cfg.WideMinLongEdgeIn {
		return true
	}
	return pred != nil && pred.Confidence >= r.cfg.MLMinConfidence && pred.Label == ProductBanner
}

func (r *Router) isFoldProduct(job *JobRecord) bool {
	if job.Special.String(SpecialProductType) == ProductTrifold {
		return true
	}
	return CanonicalProduct(job.ProductText()) == ProductTrifold
}

// unknown sizes pass the gate; only a known small format blocks fold math
func (r *Router) passesFoldGate(job *JobRecord) bool {
	if job.TrimSize == nil {
		return true
	}
	return job.LongEdge() >= r.cfg.FoldMinLongEdgeIn
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(list, it) {
			list = append(list, it)
		}
	}
	return list
}
