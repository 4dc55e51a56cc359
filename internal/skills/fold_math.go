package skills

import (
	"context"
	"fmt"
	"math"
	"strings"

	"printssistant/internal/core"
)

// FoldMath computes panel widths and fold guide positions along the long edge.
type FoldMath struct{}

const (
	minFoldLengthIn  = 8.0
	foldOffsetKey    = "fold_in_offset_in"
	defaultFoldStyle = core.FoldRoll
	defaultFoldIn    = "right"
)

func (FoldMath) Name() string { return core.IntentFoldMath }

func (FoldMath) Run(_ context.Context, in core.SkillInput) (core.SkillOutput, error) {
	job := in.Job
	if job.TrimSize == nil {
		return core.SkillOutput{Tips: []string{
			"Trim size is unknown; confirm the finished size before placing fold guides.",
		}}, nil
	}
	length := job.TrimSize.LongEdge()
	if length < minFoldLengthIn {
		return core.SkillOutput{Tips: []string{
			"This job's finished size looks too small for a tri-fold. Confirm product type and dimensions before placing fold guides.",
		}}, nil
	}

	style := foldStyle(in.Fold)
	side := defaultFoldIn
	if in.Fold.FoldIn != nil {
		side = strings.ToLower(*in.Fold.FoldIn)
	}
	allowance := foldAllowance(job, in.Fold)
	panels := Panels(length, style, side, allowance)
	positions := cumulative(panels)

	bleed := job.BleedOr(core.DefaultMinBleedIn)
	safety := job.SafetyOr(core.DefaultSafetyIn)
	tips := []string{
		fmt.Sprintf("%s along long edge: panel widths %s (total %s).", foldLabel(style), joinInches(panels), inches(length)),
		fmt.Sprintf("Add fold guides at cumulative positions: %s.", joinInches(positions)),
		fmt.Sprintf("Use %s bleed and keep type %s from folds and trim.", inches(bleed), inches(safety)),
	}
	switch style {
	case core.FoldRoll:
		tips = append(tips, fmt.Sprintf("The %s panel folds in and is %s shorter; if the panel that folds inside is opposite, swap which side is the smaller panel.", side, inches(allowance)))
	case core.FoldGate:
		tips = append(tips, fmt.Sprintf("Gate flaps are %s short of center each so they close without buckling.", inches(allowance/2)))
	}

	axis := "V"
	if job.TrimSize.H > job.TrimSize.W {
		axis = "H"
	}
	script, err := render("fold_guides", map[string]any{
		"Style":     style,
		"Bleed":     bleed,
		"W":         job.TrimSize.W,
		"H":         job.TrimSize.H,
		"Axis":      axis,
		"Positions": positions,
	})
	if err != nil {
		return core.SkillOutput{}, err
	}
	return core.SkillOutput{Tips: tips, Scripts: map[string]string{ScriptFoldGuides: script}}, nil
}

// Panels splits length into fold panels. Roll folds make the fold-in panel
// shorter by allowance; gate folds shorten both flaps; z and accordion folds
// are equal thirds; half folds are equal halves.
func Panels(length float64, style, foldIn string, allowance float64) []float64 {
	switch style {
	case core.FoldZ, core.FoldAccordion:
		third := round4(length / 3)
		return []float64{third, third, third}
	case core.FoldHalf:
		half := round4(length / 2)
		return []float64{half, half}
	case core.FoldGate:
		center := round4((length + 2*allowance) / 2)
		flap := round4((length - center) / 2)
		return []float64{flap, center, flap}
	}
	outer := round4((length + allowance) / 3)
	inner := round4(outer - allowance)
	if foldIn == "left" {
		return []float64{inner, outer, outer}
	}
	return []float64{outer, outer, inner}
}

func foldStyle(pref core.FoldPreference) string {
	if pref.Style == nil {
		return defaultFoldStyle
	}
	switch s := strings.ToLower(strings.TrimSpace(*pref.Style)); s {
	case core.FoldZ, core.FoldGate, core.FoldHalf, core.FoldAccordion:
		return s
	}
	return core.FoldRoll
}

// foldAllowance prefers the message, then the stock rule, then 1/16".
func foldAllowance(job *core.JobRecord, pref core.FoldPreference) float64 {
	if a := pref.AllowanceIn; a != nil && *a > 0 && *a < core.MaxFoldAllowanceIn {
		return *a
	}
	if v, ok := specialFloat(job, foldOffsetKey); ok && v > 0 && v < core.MaxFoldAllowanceIn {
		return v
	}
	return defaultFoldOffset
}

func foldLabel(style string) string {
	switch style {
	case core.FoldHalf:
		return "Half fold"
	case core.FoldGate:
		return "Gate fold"
	case core.FoldAccordion:
		return "Accordion fold"
	}
	return fmt.Sprintf("Tri-fold (%s)", style)
}

func cumulative(panels []float64) []float64 {
	var out []float64
	sum := 0.0
	for _, p := range panels[:len(panels)-1] {
		sum += p
		out = append(out, round4(sum))
	}
	return out
}

func joinInches(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = inches(v)
	}
	return strings.Join(parts, ", ")
}

func round4(f float64) float64 { return math.Round(f*1e4) / 1e4 }
