package skills

import (
	"context"
	"fmt"

	"printssistant/internal/core"
)

// DocSetup gives document size, bleed and safety guidance and an artboard
// script. It runs for every job.
type DocSetup struct{}

func (DocSetup) Name() string { return core.IntentDocSetup }

func (DocSetup) Run(_ context.Context, in core.SkillInput) (core.SkillOutput, error) {
	job := in.Job
	bleed := job.BleedOr(core.DefaultMinBleedIn)
	safety := job.SafetyOr(core.DefaultSafetyIn)

	var tips []string
	if t := job.TrimSize; t != nil && t.W > 0 && t.H > 0 {
		tips = append(tips, fmt.Sprintf("Create a document at %sx%s in with %s in bleed on all sides.", num(t.W), num(t.H), num(bleed)))
	} else {
		tips = append(tips, fmt.Sprintf("Create a document with %s in bleed on all sides.", num(bleed)))
	}
	tips = append(tips,
		fmt.Sprintf("Set safety margins to %s in; keep text and logos inside.", num(safety)),
		"Use CMYK document color mode; avoid placing RGB assets directly.",
	)

	w, h := 8.5, 11.0
	if t := job.TrimSize; t != nil && t.W > 0 && t.H > 0 {
		w, h = t.W, t.H
	}
	script, err := render("create_artboard", map[string]any{"Bleed": bleed, "W": w, "H": h})
	if err != nil {
		return core.SkillOutput{}, err
	}
	return core.SkillOutput{
		Tips:    tips,
		Scripts: map[string]string{ScriptArtboard: script},
	}, nil
}
