package skills

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"printssistant/internal/core"
)

// SpotPolicy applies the shop's spot color policy, which differs between
// wide-format and sheet-fed work.
type SpotPolicy struct{}

var spotMentions = []string{"pantone", "pms", "spot", "varnish", "foil", "white ink", "white spot"}

func (SpotPolicy) Name() string { return core.IntentSpot }

func (SpotPolicy) Run(_ context.Context, in core.SkillInput) (core.SkillOutput, error) {
	cfg, _ := policyValue(in.Job, "spot_policy")
	spot := cast.ToStringMap(cfg)

	allowSheet := cast.ToBool(spot["allow_spot_on_sheet_fed"])
	allowWide := true
	if v, ok := spot["allow_spot_on_wide_format"]; ok && v != nil {
		allowWide = cast.ToBool(v)
	}
	whitelist := cast.ToStringSlice(spot["whitelist_spots"])
	slices.Sort(whitelist)
	whitelist = slices.Compact(whitelist)
	wide := in.HasIntent(core.IntentWideFormat) && allowWide

	var tips []string
	switch {
	case wide && len(whitelist) > 0:
		tips = append(tips, fmt.Sprintf("Spot colors allowed for wide-format: %s. Use spots only when needed (e.g., White/Gloss).", strings.Join(whitelist, ", ")))
	case wide:
		tips = append(tips, "Spot colors allowed for wide-format. Use spots only when needed (e.g., White/Gloss).")
	case allowSheet:
		tips = append(tips, "Spot colors permitted on sheet-fed only when specified by the job ticket; otherwise convert to CMYK.")
	default:
		tips = append(tips, "Convert Pantone/spot colors to CMYK for sheet-fed production unless explicitly required.")
	}
	hasWhite := slices.Contains(whitelist, "White")
	if wide && hasWhite {
		tips = append(tips, "If using White Ink, place white objects on a topmost spot swatch named 'White' with overprint OFF unless RIP requires otherwise.")
	}

	if containsAny(strings.ToLower(in.Message), spotMentions...) {
		if wide {
			tips = append(tips, "Verify spot channels map correctly in RIP (e.g., 'White'/'Gloss').")
		} else {
			tips = append(tips, "Before export, expand/redefine spot swatches as CMYK to avoid unintended separations.")
		}
	}

	out := core.SkillOutput{Tips: tips}
	if hasWhite {
		script, err := render("add_white_spot", map[string]any{"Spots": []string{"White"}})
		if err != nil {
			return core.SkillOutput{}, err
		}
		out.Scripts = map[string]string{ScriptSpotWhite: script}
	}
	return out, nil
}
