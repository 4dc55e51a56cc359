package skills

import (
	"context"
	"fmt"

	"printssistant/internal/core"
)

// ColorPolicy covers working color mode, rich black, small text overprint,
// image resolution and the shop ICC profile.
type ColorPolicy struct{}

func (ColorPolicy) Name() string { return core.IntentColorPolicy }

func (ColorPolicy) Run(_ context.Context, in core.SkillInput) (core.SkillOutput, error) {
	job := in.Job
	var tips []string

	if allowed, set := rgbAllowedByPolicy(job); set && !allowed {
		tips = append(tips, rgbBlockedTip)
	} else {
		tips = append(tips, "Work in CMYK; avoid placing RGB assets directly.")
	}

	rb, _ := richBlack(job)
	tips = append(tips, fmt.Sprintf("Rich black for large solids/headlines: %s.", rb))

	small := smallTextPt(job)
	tips = append(tips,
		fmt.Sprintf("Body text <= %s pt: 100K only and set to overprint.", num(small)),
		"Aim for effective 300 PPI on placed images (150+ for wide-format).",
	)

	icc := iccProfile(job)
	if icc != "" {
		tips = append(tips, fmt.Sprintf("Use shop ICC: %s.", icc))
	} else {
		icc = defaultICC
	}

	c, m, y, k, ok := parseCMYK(rb)
	if !ok {
		c, m, y, k, _ = parseCMYK(defaultRichBlack)
	}
	ai, err := render("color_policies", map[string]any{"C": c, "M": m, "Y": y, "K": k, "SmallTextPt": small})
	if err != nil {
		return core.SkillOutput{}, err
	}
	ps, err := render("convert_to_cmyk", map[string]any{"ICC": icc})
	if err != nil {
		return core.SkillOutput{}, err
	}
	return core.SkillOutput{
		Tips:    tips,
		Scripts: map[string]string{ScriptColor: ai, ScriptPhotoshopCMYK: ps},
	}, nil
}

const rgbBlockedTip = "RGB assets not allowed: convert to CMYK before placing."

func smallTextPt(job *core.JobRecord) float64 {
	if v, ok := specialFloat(job, "small_text_pt"); ok && v > 0 {
		return v
	}
	return policyFloat(job, "small_text_pt", defaultSmallTextPt)
}
