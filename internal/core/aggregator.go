package core

import (
	"strings"

	"printssistant/pkg/utils"
)

var asciiFold = strings.NewReplacer(
	"×", "x",
	"≤", "<=",
	"≥", ">=",
	"–", "-",
	"—", "-",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"″", `"`,
	"′", "'",
	"…", "...",
	"\u00a0", " ",
)

// phrasings that mean the same thing, mapped onto one canonical form
var tipSynonyms = []struct{ from, to string }{
	{"use cmyk document color mode", "work in cmyk"},
	{"use cmyk color mode", "work in cmyk"},
	{"set color mode to cmyk", "work in cmyk"},
}

// a shop-specific phrasing drops the generic phrasing of the same topic
var shopPhrasings = []struct{ shop, generic string }{
	{"set document to ", "create a document at "},
	{"use shop rich black", "rich black for large solids"},
}

const (
	rgbAllowedPhrase = "rgb assets allowed"
	rgbBlockedPhrase = "rgb assets not allowed"
)

// ASCIITip folds typographic symbols in a tip to plain ASCII.
func ASCIITip(tip string) string {
	return strings.TrimSpace(asciiFold.Replace(tip))
}

// TipKey is the comparison key used for duplicate detection.
func TipKey(tip string) string {
	key := strings.ToLower(ASCIITip(tip))
	key = strings.Join(strings.Fields(key), " ")
	key = strings.TrimRight(key, " .;:,!")
	for _, syn := range tipSynonyms {
		if strings.HasPrefix(key, syn.from) {
			key = syn.to + strings.TrimPrefix(key, syn.from)
		}
	}
	return key
}

func isCMYKAdmonition(key string) bool {
	return strings.HasPrefix(key, "work in cmyk") || strings.Contains(key, "avoid placing rgb")
}

// DedupeTips collapses redundant and contradictory tips. Supersession runs
// first: shop phrasing over generic phrasing, then RGB allowed over CMYK
// admonitions, then RGB blocked over RGB allowed, then only the first CMYK
// admonition survives. Remaining exact duplicates keep their first position.
func DedupeTips(tips []string) []string {
	type entry struct{ text, key string }
	entries := make([]entry, 0, len(tips))
	for _, t := range tips {
		text := ASCIITip(t)
		if text == "" {
			continue
		}
		entries = append(entries, entry{text: text, key: TipKey(text)})
	}

	drop := func(pred func(key string) bool) {
		kept := entries[:0]
		for _, e := range entries {
			if !pred(e.key) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	exists := func(pred func(key string) bool) bool {
		for _, e := range entries {
			if pred(e.key) {
				return true
			}
		}
		return false
	}

	for _, p := range shopPhrasings {
		if exists(func(k string) bool { return strings.HasPrefix(k, p.shop) }) {
			drop(func(k string) bool { return strings.HasPrefix(k, p.generic) })
		}
	}

	rgbAllowed := func(k string) bool { return strings.Contains(k, rgbAllowedPhrase) }
	rgbBlocked := func(k string) bool { return strings.Contains(k, rgbBlockedPhrase) }
	if exists(rgbAllowed) {
		drop(isCMYKAdmonition)
	}
	if exists(rgbBlocked) {
		drop(rgbAllowed)
	}

	seenAdmonition := false
	drop(func(k string) bool {
		if !isCMYKAdmonition(k) {
			return false
		}
		if seenAdmonition {
			return true
		}
		seenAdmonition = true
		return false
	})

	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if seen[e.key] {
			continue
		}
		seen[e.key] = true
		out = append(out, e.text)
	}
	return out
}

// MergeScripts unions script maps; later maps overwrite same-named entries.
func MergeScripts(parts ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, p := range parts {
		for name, text := range p {
			out[name] = text
		}
	}
	return out
}

// MergeOutputs aggregates skill outputs in invocation order.
func MergeOutputs(outputs []SkillOutput) SkillOutput {
	var tips, nags []string
	scripts := make([]map[string]string, 0, len(outputs))
	for _, o := range outputs {
		tips = append(tips, o.Tips...)
		nags = append(nags, o.Nags...)
		scripts = append(scripts, o.Scripts)
	}
	return SkillOutput{
		Tips:    DedupeTips(tips),
		Scripts: MergeScripts(scripts...),
		Nags:    uniqueStrings(nags),
	}
}

// TipIDs returns a stable short ID per tip.
func TipIDs(tips []string) []string {
	ids := make([]string, len(tips))
	for i, t := range tips {
		ids[i] = utils.ShortHash(t)
	}
	return ids
}

func uniqueStrings(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		it = ASCIITip(it)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
