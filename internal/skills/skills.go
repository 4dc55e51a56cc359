// Package skills holds the advisory skills run by the core pipeline. Every
// skill reads shop policy from the job's resolved shop config only.
package skills

import (
	"embed"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/cast"

	"printssistant/internal/core"
)

// Script names produced by the skills.
const (
	ScriptArtboard      = "illustrator_jsx"
	ScriptColor         = "illustrator_jsx_color"
	ScriptPhotoshopCMYK = "photoshop_jsx_cmyk"
	ScriptFoldGuides    = "illustrator_jsx_fold_guides"
	ScriptWideGuides    = "illustrator_jsx_wide_format_guides"
	ScriptSpotWhite     = "illustrator_jsx_spot_white"
)

const (
	defaultRichBlack   = "60/40/40/100"
	defaultICC         = "US Web Coated (SWOP) v2"
	defaultSmallTextPt = 18.0
	defaultFoldOffset  = 1.0 / 16.0
)

//go:embed templates/*.jsx.tmpl
var templateFS embed.FS

var scriptTemplates = template.Must(
	template.New("scripts").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{"num": num, "pt": pt}).
		ParseFS(templateFS, "templates/*.jsx.tmpl"),
)

// Register binds every skill to its intent and adds the ambient skills.
func Register(reg *core.Registry) {
	reg.Register(core.IntentDocSetup, DocSetup{})
	reg.Register(core.IntentColorPolicy, ColorPolicy{})
	reg.Register(core.IntentFoldMath, FoldMath{})
	reg.Register(core.IntentWideFormat, WideFormat{})
	reg.Register(core.IntentSpot, SpotPolicy{})
	reg.Register(core.IntentMinSpecs, MinSpecs{})
	reg.RegisterAmbient(PolicyEnforcer{})
	reg.RegisterAmbient(SoftNags{})
}

// NewRegistry returns a registry with every skill registered.
func NewRegistry() *core.Registry {
	reg := core.NewRegistry()
	Register(reg)
	return reg
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := scriptTemplates.ExecuteTemplate(&b, name+".jsx.tmpl", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()) + "\n", nil
}

// num formats inches compactly: 11, 8.5, 0.125, 3.6875.
func num(v any) string {
	f := cast.ToFloat64(v)
	return strconv.FormatFloat(math.Round(f*1e4)/1e4, 'f', -1, 64)
}

// pt converts inches to points, rounded to 3 places.
func pt(v any) string {
	f := cast.ToFloat64(v) * 72
	return strconv.FormatFloat(math.Round(f*1e3)/1e3, 'f', -1, 64)
}

func inches(v float64) string { return num(v) + `"` }

func fixed3(v float64) string { return fmt.Sprintf(`%.3f"`, v) }

// policy helpers

func policies(job *core.JobRecord) map[string]any {
	return job.Shop().Policies
}

func policyValue(job *core.JobRecord, path string) (any, bool) {
	return core.LookupPath(policies(job), path)
}

func policyFloat(job *core.JobRecord, path string, fallback float64) float64 {
	if v, ok := policyValue(job, path); ok {
		if f, err := cast.ToFloat64E(v); err == nil && !math.IsNaN(f) {
			return f
		}
	}
	return fallback
}

func policyText(job *core.JobRecord, keys ...string) string {
	return job.Shop().PolicyString(keys...)
}

func specialText(job *core.JobRecord, key string) string {
	return job.Special.String(key)
}

func specialFloat(job *core.JobRecord, key string) (float64, bool) {
	v, ok := job.Special[key]
	if !ok || v == nil {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// preset returns the product preset attached by the resolver.
func preset(job *core.JobRecord) map[string]any {
	return job.Special.Map(core.SpecialProductPreset)
}

// press returns the capability record of the resolved press.
func press(job *core.JobRecord) map[string]any {
	key := job.Special.String(core.SpecialPress)
	if key == "" {
		return nil
	}
	return job.Shop().Press(key)
}

func boolField(m map[string]any, key string) (value, set bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func floatField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func textField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// iccProfile looks up the ICC profile: job override, product preset, press,
// then shop policy.
func iccProfile(job *core.JobRecord) string {
	if s := specialText(job, core.SpecialICCProfile); s != "" {
		return s
	}
	if s := textField(preset(job), "icc_profile"); s != "" {
		return s
	}
	if s := textField(press(job), "icc_profile", "icc"); s != "" {
		return s
	}
	return policyText(job, "icc_profile", "default_icc")
}

// richBlack returns the rich black recipe and whether it is shop-specific.
func richBlack(job *core.JobRecord) (string, bool) {
	if s := specialText(job, core.SpecialRichBlack); s != "" {
		return s, true
	}
	if s := policyText(job, "sleek_black", "rich_black"); s != "" {
		return s, true
	}
	return defaultRichBlack, false
}

// parseCMYK reads "60/40/40/100" (percent signs allowed).
func parseCMYK(recipe string) (c, m, y, k int, ok bool) {
	parts := strings.Split(strings.ReplaceAll(recipe, "%", ""), "/")
	if len(parts) != 4 {
		return 0, 0, 0, 0, false
	}
	vals := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 100 {
			return 0, 0, 0, 0, false
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], vals[3], true
}

// rgbAllowedByPolicy reports the global allow_rgb policy and whether it is set.
func rgbAllowedByPolicy(job *core.JobRecord) (value, set bool) {
	return job.Shop().PolicyBool("allow_rgb")
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
