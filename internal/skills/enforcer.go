package skills

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"printssistant/internal/core"
)

// PolicyEnforcer states hard shop rules on every job: RGB blocking, the shop
// rich black and total ink coverage limits mentioned in the message.
type PolicyEnforcer struct{}

const defaultMaxInk = 300.0

var (
	inkBefore = regexp.MustCompile(`(\d{2,3}(?:\.\d+)?)\s*%?\s*(?:tac|total ink|ink coverage|ink limit)\b`)
	inkAfter  = regexp.MustCompile(`\b(?:tac|total ink|ink coverage|ink limit)\s*(?:of|at|is|=|:)?\s*(\d{2,3}(?:\.\d+)?)`)
)

func (PolicyEnforcer) Name() string { return "policy_enforcer" }

func (PolicyEnforcer) Run(_ context.Context, in core.SkillInput) (core.SkillOutput, error) {
	job := in.Job
	var tips []string

	if allowed, set := rgbAllowedByPolicy(job); set && !allowed {
		tips = append(tips, rgbBlockedTip)
	}
	if rb, shop := richBlack(job); shop {
		tips = append(tips, fmt.Sprintf("Use shop rich black: %s.", rb))
	}

	limit := policyFloat(job, "max_ink_coverage", defaultMaxInk)
	for _, v := range InkCoverages(in.Message) {
		if v > limit {
			tips = append(tips, fmt.Sprintf("Ink coverage %s%% exceeds TAC %s%%; reduce with GCR or use the shop rich black.", num(v), num(limit)))
			break
		}
	}
	return core.SkillOutput{Tips: tips}, nil
}

// InkCoverages returns the total ink percentages mentioned in a message, such
// as "340 TAC" or "ink coverage: 320%".
func InkCoverages(message string) []float64 {
	msg := strings.ToLower(message)
	var out []float64
	for _, re := range []*regexp.Regexp{inkBefore, inkAfter} {
		for _, m := range re.FindAllStringSubmatch(msg, -1) {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				out = append(out, f)
			}
		}
	}
	return out
}
