package core

import "maps"

// Well-known keys of JobRecord.Special. Unknown keys pass through untouched.
const (
	SpecialMachine       = "machine"
	SpecialPress         = "press"
	SpecialProductType   = "product_type"
	SpecialProductPreset = "product_preset"
	SpecialStockRule     = "stock_rule"
	SpecialAdjustments   = "adjustments"
	SpecialShop          = "shop"
	SpecialICCProfile    = "icc_profile"
	SpecialRichBlack     = "rich_black"
	SpecialImpositionA   = "imposition_across"
	SpecialImpositionD   = "imposition_down"
)

const (
	NoPrinting       = "No Printing"
	FlatProduct      = "Flat Product"
	DefaultSafetyIn  = 0.125
	DefaultPageCount = 1
)

// TrimSize is the finished size of a job in inches.
type TrimSize struct {
	W float64 `json:"w_in" yaml:"w_in"`
	H float64 `json:"h_in" yaml:"h_in"`
}

// LongEdge returns the larger of the two dimensions.
func (t TrimSize) LongEdge() float64 {
	return max(t.W, t.H)
}

// ShortEdge returns the smaller of the two dimensions.
func (t TrimSize) ShortEdge() float64 {
	return min(t.W, t.H)
}

// Colors holds the front and back ink callouts.
type Colors struct {
	Front string `json:"front" yaml:"front"`
	Back  string `json:"back" yaml:"back"`
}

// Special is the open extension bag of a job.
type Special map[string]any

// String returns the trimmed string value stored under key, or "".
func (s Special) String(key string) string {
	if s == nil {
		return ""
	}
	v, _ := s[key].(string)
	return trimSpace(v)
}

// Map returns the mapping stored under key, or nil.
func (s Special) Map(key string) map[string]any {
	if s == nil {
		return nil
	}
	return asMap(s[key])
}

// SetDefault stores value under key unless key is already present.
func (s Special) SetDefault(key string, value any) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = value
	return true
}

// JobRecord is the canonical description of a single print job.
type JobRecord struct {
	Product        *string   `json:"product"`
	TrimSize       *TrimSize `json:"trim_size"`
	Bleed          *float64  `json:"bleed_in"`
	Safety         *float64  `json:"safety_in"`
	PageCount      int       `json:"pages"`
	Colors         Colors    `json:"colors"`
	Stock          *string   `json:"stock"`
	Finish         *string   `json:"finish"`
	ImpositionHint *string   `json:"imposition_hint"`
	DueAt          *string   `json:"due_at"`
	Special        Special   `json:"special"`

	// set when Safety holds the normalizer default rather than a job value
	safetyDefaulted bool
}

// Adjustment records a field the resolver raised to satisfy a minimum.
type Adjustment struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
	Min  float64 `json:"min"`
}

// LongEdge returns the trim long edge, or 0 when the trim size is unknown.
func (j *JobRecord) LongEdge() float64 {
	if j == nil || j.TrimSize == nil {
		return 0
	}
	return j.TrimSize.LongEdge()
}

// BleedOr returns the bleed, or fallback when absent or zero.
func (j *JobRecord) BleedOr(fallback float64) float64 {
	if j.Bleed == nil || *j.Bleed == 0 {
		return fallback
	}
	return *j.Bleed
}

// SafetyOr returns the safety margin, or fallback when absent or zero.
func (j *JobRecord) SafetyOr(fallback float64) float64 {
	if j.Safety == nil || *j.Safety == 0 {
		return fallback
	}
	return *j.Safety
}

// ProductText returns the free-text product name, or "".
func (j *JobRecord) ProductText() string {
	if j == nil || j.Product == nil {
		return ""
	}
	return *j.Product
}

// StockText returns the free-text stock name, or "".
func (j *JobRecord) StockText() string {
	if j == nil || j.Stock == nil {
		return ""
	}
	return *j.Stock
}

// Machine returns the declared machine, falling back to the press key.
func (j *JobRecord) Machine() string {
	if m := j.Special.String(SpecialMachine); m != "" {
		return m
	}
	return j.Special.String(SpecialPress)
}

// Shop returns the shop configuration attached by the resolver, or an empty one.
func (j *JobRecord) Shop() *ShopConfig {
	if j != nil && j.Special != nil {
		if cfg, ok := j.Special[SpecialShop].(*ShopConfig); ok && cfg != nil {
			return cfg
		}
	}
	return emptyShop
}

// Adjustments returns the audit trail written by the resolver.
func (j *JobRecord) Adjustments() map[string]Adjustment {
	if j == nil || j.Special == nil {
		return nil
	}
	adj, _ := j.Special[SpecialAdjustments].(map[string]Adjustment)
	return adj
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Str returns a pointer to v.
func Str(v string) *string { return &v }

// Public returns a copy of the job without the attached shop config, suitable
// for JSON output.
func (j *JobRecord) Public() JobRecord {
	out := *j
	out.Special = maps.Clone(j.Special)
	delete(out.Special, SpecialShop)
	if out.Special == nil {
		out.Special = Special{}
	}
	return out
}

// Fields returns the job as a nested map keyed by its JSON field names.
// Absent values are nil. The attached shop config is omitted.
func (j *JobRecord) Fields() map[string]any {
	pub := j.Public()
	fields := map[string]any{
		"product":         deref(pub.Product),
		"trim_size":       nil,
		"bleed_in":        deref(pub.Bleed),
		"safety_in":       deref(pub.Safety),
		"pages":           pub.PageCount,
		"colors":          map[string]any{"front": pub.Colors.Front, "back": pub.Colors.Back},
		"stock":           deref(pub.Stock),
		"finish":          deref(pub.Finish),
		"imposition_hint": deref(pub.ImpositionHint),
		"due_at":          deref(pub.DueAt),
		"special":         map[string]any(pub.Special),
	}
	if t := pub.TrimSize; t != nil {
		fields["trim_size"] = map[string]any{"w_in": t.W, "h_in": t.H}
	}
	return fields
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
