package core

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// Normalize builds a canonical JobRecord from a loosely-typed nested mapping.
// Data anomalies degrade to absent values; only a mapping of the wrong shape
// yields a ConfigFormatError.
func Normalize(raw map[string]any) (*JobRecord, error) {
	job := JobRecord{
		Product:        optText(first(raw, "product")),
		Bleed:          optNonNegative(first(raw, "bleed_in", "bleed")),
		Safety:         optNonNegative(first(raw, "safety_in", "safety")),
		Stock:          optText(first(raw, "stock")),
		Finish:         optText(first(raw, "finish")),
		ImpositionHint: optText(first(raw, "imposition_hint")),
		DueAt:          optText(first(raw, "due_at")),
	}
	if n, ok := toInt(first(raw, "pages", "page_count")); ok {
		job.PageCount = n
	}

	trim, err := normalizeTrim(first(raw, "trim_size"))
	if err != nil {
		return nil, err
	}
	job.TrimSize = trim

	colors, err := normalizeColors(first(raw, "colors"))
	if err != nil {
		return nil, err
	}
	job.Colors = colors

	switch sp := first(raw, "special").(type) {
	case nil:
	default:
		m := asMap(sp)
		if m == nil {
			return nil, formatErr("special", "expected a mapping, got %T", sp)
		}
		job.Special = Special(maps.Clone(m))
	}

	out := NormalizeRecord(job)
	return &out, nil
}

// NormalizeFields expands dot-delimited field paths (as produced by the
// field-extraction adapter) and normalizes the result.
func NormalizeFields(fields map[string]any) (*JobRecord, error) {
	nested, err := ExpandFields(fields)
	if err != nil {
		return nil, err
	}
	return Normalize(nested)
}

// NormalizeRecord applies the defaulting and coercion rules to an already typed
// record. A record that satisfies every invariant comes back unchanged.
func NormalizeRecord(j JobRecord) JobRecord {
	j.Product = cleanText(j.Product)
	j.Stock = cleanText(j.Stock)
	j.Finish = cleanText(j.Finish)
	j.ImpositionHint = cleanText(j.ImpositionHint)
	j.DueAt = cleanText(j.DueAt)
	j.Bleed = cleanMeasure(j.Bleed)
	j.Safety = cleanMeasure(j.Safety)

	if t := j.TrimSize; t != nil {
		if !finiteNonNegative(t.W) || !finiteNonNegative(t.H) {
			j.TrimSize = nil
		}
	}
	if j.PageCount < 1 {
		j.PageCount = DefaultPageCount
	}

	j.Colors.Front = strings.TrimSpace(j.Colors.Front)
	j.Colors.Back = strings.TrimSpace(j.Colors.Back)
	if j.Colors.Back == "" {
		j.Colors.Back = NoPrinting
	}

	if j.Special == nil {
		j.Special = Special{}
	}
	if composeImposition(j.Special) && j.ImpositionHint == nil {
		j.ImpositionHint = Str(FlatProduct)
	}
	if j.Safety == nil {
		j.Safety = Float(DefaultSafetyIn)
		j.safetyDefaulted = true
	}
	return j
}

// ExpandFields turns {"trim_size.w_in": 3.5} into {"trim_size": {"w_in": 3.5}}.
func ExpandFields(fields map[string]any) (map[string]any, error) {
	out := map[string]any{}
	keys := slices.Sorted(maps.Keys(fields))
	for _, key := range keys {
		parts := strings.Split(key, ".")
		cursor := out
		for i, part := range parts[:len(parts)-1] {
			next, exists := cursor[part]
			if !exists || next == nil {
				child := map[string]any{}
				cursor[part] = child
				cursor = child
				continue
			}
			child := asMap(next)
			if child == nil {
				return nil, formatErr(key, "%q is a scalar and cannot hold nested fields", strings.Join(parts[:i+1], "."))
			}
			child = maps.Clone(child)
			cursor[part] = child
			cursor = child
		}
		leaf := parts[len(parts)-1]
		if existing := asMap(cursor[leaf]); existing != nil {
			return nil, formatErr(key, "field already holds nested values")
		}
		cursor[leaf] = fields[key]
	}
	return out, nil
}

func normalizeTrim(v any) (*TrimSize, error) {
	if v == nil {
		return nil, nil
	}
	if ts, ok := v.(*TrimSize); ok {
		return ts, nil
	}
	m := asMap(v)
	if m == nil {
		// free text such as "3.5x2" is not a structured size
		return nil, nil
	}
	w, okW := toFloat(first(m, "w_in", "w", "width"))
	h, okH := toFloat(first(m, "h_in", "h", "height"))
	if !okW || !okH || w < 0 || h < 0 {
		return nil, nil
	}
	return &TrimSize{W: w, H: h}, nil
}

func normalizeColors(v any) (Colors, error) {
	var c Colors
	if v == nil {
		return c, nil
	}
	m := asMap(v)
	if m == nil {
		return c, formatErr("colors", "expected a mapping of front/back, got %T", v)
	}
	// exact lowercase keys win, then case variants in sorted key order
	taken := map[string]bool{}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		val := m[key]
		if asMap(val) != nil {
			return c, formatErr("colors."+key, "expected a scalar ink callout, got a mapping")
		}
		if _, isList := val.([]any); isList {
			return c, formatErr("colors."+key, "expected a scalar ink callout, got a list")
		}
		slot := strings.ToLower(strings.TrimSpace(key))
		if slot != "front" && slot != "back" {
			continue
		}
		if key != slot && taken[slot] {
			continue
		}
		text, _ := toText(val)
		if slot == "front" {
			c.Front = text
		} else {
			c.Back = text
		}
		taken[slot] = true
	}
	return c, nil
}

// composeImposition folds imposition_across/imposition_down into "AxD" and
// reports whether an imposition grid is known.
func composeImposition(sp Special) bool {
	across, hasA := toText(sp[SpecialImpositionA])
	down, hasD := toText(sp[SpecialImpositionD])
	delete(sp, SpecialImpositionD)
	switch {
	case hasA && hasD && !strings.ContainsAny(across, "xX"):
		sp[SpecialImpositionA] = fmt.Sprintf("%sx%s", across, down)
	case hasA:
		sp[SpecialImpositionA] = across
	default:
		delete(sp, SpecialImpositionA)
		return false
	}
	return true
}

func cleanText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	if t == *s {
		return s
	}
	return &t
}

func cleanMeasure(f *float64) *float64 {
	if f == nil || !finiteNonNegative(*f) {
		return nil
	}
	return f
}

func finiteNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
