package skills

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"printssistant/internal/core"
)

// SoftNags emits non-blocking notices: automatic adjustments, grommet
// confirmation on wide jobs and the ICC profile in use. Output goes to Nags.
type SoftNags struct{}

const (
	nagAdjustments = "adjustments"
	nagGrommets    = "grommets"
	nagICC         = "icc_missing"
)

func (SoftNags) Name() string { return "soft_nags" }

func (SoftNags) Run(_ context.Context, in core.SkillInput) (core.SkillOutput, error) {
	job := in.Job
	var nags []string

	if nagEnabled(job, nagAdjustments) {
		adj := job.Adjustments()
		if a, ok := adj["bleed_in"]; ok {
			nags = append(nags, fmt.Sprintf("Soft-nag: Bleed increased to %s (min %s).", fixed3(a.To), fixed3(a.Min)))
		}
		if a, ok := adj["safety_in"]; ok {
			nags = append(nags, fmt.Sprintf("Soft-nag: Safety increased to %s (min %s).", fixed3(a.To), fixed3(a.Min)))
		}
	}

	if in.HasIntent(core.IntentWideFormat) && nagEnabled(job, nagGrommets) {
		if _, ok := specialFloat(job, "grommet_spacing_in"); !ok {
			def := policyFloat(job, "grommet_spacing_default_in", 12)
			nags = append(nags, fmt.Sprintf(`Soft-nag: Confirm grommet spacing; assuming %.0f" by default.`, def))
		}
	}

	if nagEnabled(job, nagICC) {
		if icc := iccProfile(job); icc != "" {
			nags = append(nags, fmt.Sprintf("Soft-nag: Using ICC profile: %s.", icc))
		} else {
			nags = append(nags, "Soft-nag: No ICC profile specified; using system default.")
		}
	}
	return core.SkillOutput{Nags: nags}, nil
}

// nagEnabled reads policies.soft_nags: absent or true enables every nag,
// false disables all, a mapping may set enable and per-nag flags.
func nagEnabled(job *core.JobRecord, name string) bool {
	v, ok := policyValue(job, "soft_nags")
	if !ok || v == nil {
		return true
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	m := cast.ToStringMap(v)
	if e, set := boolField(m, "enable"); set && !e {
		return false
	}
	if f, set := boolField(m, name); set {
		return f
	}
	return true
}
