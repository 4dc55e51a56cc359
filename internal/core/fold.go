package core

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Fold styles understood by the fold math skill.
const (
	FoldRoll      = "roll"
	FoldZ         = "z"
	FoldGate      = "gate"
	FoldHalf      = "half"
	FoldTri       = "tri"
	FoldAccordion = "accordion"
)

// FoldPreference is what an operator message says about folding. Nil fields
// were not mentioned; callers pick their own defaults.
type FoldPreference struct {
	Style       *string  `json:"style,omitempty"`
	FoldIn      *string  `json:"fold_in,omitempty"`
	AllowanceIn *float64 `json:"allowance_in,omitempty"`
}

// scanned in order, first match wins
var foldStyles = []struct {
	style string
	re    *regexp.Regexp
}{
	{FoldRoll, regexp.MustCompile(`\broll[\s-]*fold|\broll\b`)},
	{FoldZ, regexp.MustCompile(`\bz[\s-]*fold|\bz\b`)},
	{FoldGate, regexp.MustCompile(`\bgate[\s-]*fold|\bgate\b`)},
	{FoldHalf, regexp.MustCompile(`\bhalf[\s-]*fold|\bhalf\b`)},
	{FoldTri, regexp.MustCompile(`\btri[\s-]*fold`)},
	{FoldAccordion, regexp.MustCompile(`\baccordion`)},
}

var (
	foldInPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(left|right)\s+(?:panel|side|flap)?\s*(?:folds?\s+)?in\b`),
		regexp.MustCompile(`\bfolds?[\s-]*in(?:\s+on)?(?:\s+the)?\s*[:=]?\s*(left|right)\b`),
		regexp.MustCompile(`\btuck\s+(?:the\s+)?(left|right)\b`),
	}
	fractionInches = regexp.MustCompile(`(\d+)\s*/\s*(\d+)\s*(?:"|in\b|inch(?:es)?\b)`)
	decimalInches  = regexp.MustCompile(`(\d*\.\d+)\s*(?:"|in\b|inch(?:es)?\b)`)
	allowanceLead  = regexp.MustCompile(`(?:fold[\s-]*in|allowance|offset|inner panel|tuck)\W*(?:\w+\W+){0,2}$`)
	allowanceTail  = regexp.MustCompile(`^\s*(?:shorter|short|less|smaller)\b`)
)

// MaxFoldAllowanceIn bounds a fold-in allowance; larger values are dimensions.
const MaxFoldAllowanceIn = 0.5

// FoldPreferences extracts a fold style, a fold-in side and a fold-in
// allowance from free text.
func FoldPreferences(message string) FoldPreference {
	msg := strings.ToLower(message)
	var pref FoldPreference

	for _, fs := range foldStyles {
		if fs.re.MatchString(msg) {
			pref.Style = Str(fs.style)
			break
		}
	}
	for _, re := range foldInPatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			pref.FoldIn = Str(m[1])
			break
		}
	}
	pref.AllowanceIn = parseAllowance(msg)
	return pref
}

type inchValue struct {
	start, end int
	value      float64
}

// inchValues returns every fraction or decimal inch value in msg, in message order.
func inchValues(msg string) []inchValue {
	var out []inchValue
	for _, m := range fractionInches.FindAllStringSubmatchIndex(msg, -1) {
		num, errN := strconv.Atoi(msg[m[2]:m[3]])
		den, errD := strconv.Atoi(msg[m[4]:m[5]])
		if errN == nil && errD == nil && den != 0 {
			out = append(out, inchValue{m[0], m[1], round4(float64(num) / float64(den))})
		}
	}
	for _, m := range decimalInches.FindAllStringSubmatchIndex(msg, -1) {
		if f, err := strconv.ParseFloat(msg[m[2]:m[3]], 64); err == nil {
			out = append(out, inchValue{m[0], m[1], round4(f)})
		}
	}
	slices.SortFunc(out, func(a, b inchValue) int { return a.start - b.start })
	return out
}

// parseAllowance prefers a value next to a fold-in phrase, then the first
// value small enough to be an allowance.
func parseAllowance(msg string) *float64 {
	values := inchValues(msg)
	for _, v := range values {
		if v.value >= MaxFoldAllowanceIn {
			continue
		}
		if allowanceLead.MatchString(msg[:v.start]) || allowanceTail.MatchString(msg[v.end:]) {
			return Float(v.value)
		}
	}
	for _, v := range values {
		if v.value < MaxFoldAllowanceIn {
			return Float(v.value)
		}
	}
	return nil
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
