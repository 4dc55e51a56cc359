package skills

import (
	"context"
	"fmt"

	"printssistant/internal/core"
)

// WideFormat covers large-format setup: RGB handling, resolution, device
// profile and grommets.
type WideFormat struct{}

const (
	defaultWideW      = 24.0
	defaultWideH      = 18.0
	defaultWideSafety = 0.25
	defaultMinPPI     = 150
)

func (WideFormat) Name() string { return core.IntentWideFormat }

func (WideFormat) Run(_ context.Context, in core.SkillInput) (core.SkillOutput, error) {
	job := in.Job
	w, h := defaultWideW, defaultWideH
	if t := job.TrimSize; t != nil && t.W > 0 && t.H > 0 {
		w, h = t.W, t.H
	}
	bleed := 0.0
	if job.Bleed != nil {
		bleed = *job.Bleed
	}
	safety := job.SafetyOr(defaultWideSafety)

	tips := []string{fmt.Sprintf("Set document to %sx%s in; bleed %s; safety %s.", num(w), num(h), inches(bleed), inches(safety))}
	if WideRGBAllowed(job) {
		tips = append(tips, "RGB assets allowed; embed sRGB/Adobe RGB and let the RIP handle conversion.")
	} else {
		tips = append(tips, "Work in CMYK; avoid placing RGB assets directly.")
	}
	tips = append(tips, fmt.Sprintf("For large-format output, aim for >= %d PPI at final size (200+ if viewed close).", minPPI(job)))
	if icc := iccProfile(job); icc != "" {
		tips = append(tips, fmt.Sprintf("Use device/profile: %s.", icc))
	}

	margin, hasMargin := grommetValue(job, "grommet_margin_in")
	spacing, hasSpacing := grommetValue(job, "grommet_spacing_in")
	if hasMargin {
		tips = append(tips, fmt.Sprintf("Keep critical content >= %s from all edges (grommet/safe margin).", inches(margin)))
	}
	if hasSpacing {
		tips = append(tips, fmt.Sprintf("Plan grommets ~every %s along edges unless specified otherwise.", inches(spacing)))
	}

	var grommets []float64
	if hasMargin && hasSpacing {
		grommets = GrommetPositions(w, margin, spacing)
	}
	script, err := render("wide_format_guides", map[string]any{
		"W": w, "H": h, "Bleed": bleed, "Safety": safety, "Grommets": grommets,
	})
	if err != nil {
		return core.SkillOutput{}, err
	}
	return core.SkillOutput{Tips: tips, Scripts: map[string]string{ScriptWideGuides: script}}, nil
}

// WideRGBAllowed resolves allow_rgb by product preset, then press, then
// global policy. Unset everywhere means not allowed.
func WideRGBAllowed(job *core.JobRecord) bool {
	if v, ok := boolField(widePreset(job), "allow_rgb"); ok {
		return v
	}
	if v, ok := boolField(press(job), "allow_rgb"); ok {
		return v
	}
	v, _ := rgbAllowedByPolicy(job)
	return v
}

// GrommetPositions places grommets from margin to width-margin every spacing inches.
func GrommetPositions(width, margin, spacing float64) []float64 {
	if spacing <= 0 {
		return nil
	}
	end := max(margin, width-margin)
	var xs []float64
	for x := margin; x <= end+1e-9; x += spacing {
		xs = append(xs, round4(x))
	}
	return xs
}

// widePreset is the job's preset, or the shop banner preset.
func widePreset(job *core.JobRecord) map[string]any {
	if p := preset(job); p != nil {
		return p
	}
	return job.Shop().Product(core.ProductBanner)
}

func minPPI(job *core.JobRecord) int {
	if v, ok := floatField(widePreset(job), "min_ppi"); ok && v > 0 {
		return int(v)
	}
	return defaultMinPPI
}

// grommetValue reads a grommet setting from the job (including stock rule
// parameters), then the preset.
func grommetValue(job *core.JobRecord, key string) (float64, bool) {
	if v, ok := specialFloat(job, key); ok && v > 0 {
		return v, true
	}
	if v, ok := floatField(widePreset(job), key); ok && v > 0 {
		return v, true
	}
	return 0, false
}
