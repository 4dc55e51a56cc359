package skills

import (
	"context"
	"fmt"
	"strings"

	"printssistant/internal/core"
)

// MinSpecs states minimum text sizes and stroke widths from shop policy.
type MinSpecs struct{}

var (
	smallTextWords = []string{"small text", "tiny text", "tiny type", "fine text", "reverse text", "knockout text", "white text"}
	hairlineWords  = []string{"hairline", "thin line", "fine line", "barcode", "micro line"}
)

func (MinSpecs) Name() string { return core.IntentMinSpecs }

func (MinSpecs) Run(_ context.Context, in core.SkillInput) (core.SkillOutput, error) {
	job := in.Job
	msg := strings.ToLower(in.Message)
	text := containsAny(msg, smallTextWords...)
	lines := containsAny(msg, hairlineWords...)
	if !text && !lines {
		text, lines = true, true
	}

	var tips []string
	if text {
		tips = append(tips,
			fmt.Sprintf("Minimum text size: body 100K text >= %s pt.", num(policyFloat(job, "min_text_pt.body_k_only", 7))),
			fmt.Sprintf("Small reversed/knockout text >= %s pt (heavier weight if possible).", num(policyFloat(job, "min_text_pt.small_knockout", 8))),
		)
	}
	if lines {
		if in.HasIntent(core.IntentWideFormat) {
			tips = append(tips, fmt.Sprintf("Minimum hairline width (wide-format): >= %s pt.", num(policyFloat(job, "min_stroke_pt.wide_format", 0.5))))
		} else {
			tips = append(tips, fmt.Sprintf("Minimum hairline width: 100K lines >= %s pt; reversed/knockout lines >= %s pt.",
				num(policyFloat(job, "min_stroke_pt.k_only", 0.25)),
				num(policyFloat(job, "min_stroke_pt.knockout", 0.35)),
			))
		}
	}
	return core.SkillOutput{Tips: tips}, nil
}
