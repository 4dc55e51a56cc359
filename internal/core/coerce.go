package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

var integralText = regexp.MustCompile(`^[+-]?\d+(\.0+)?$`)

// toFloat accepts anything convertible to a finite float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		v = t
	case map[string]any, []any:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt accepts integral numbers and integral-looking strings such as "3" or "3.0".
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if !integralText.MatchString(t) {
			return 0, false
		}
		t, _, _ = strings.Cut(t, ".")
		n, err := strconv.Atoi(strings.TrimPrefix(t, "+"))
		return n, err == nil
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// toText trims scalars to a string; blank and non-scalar values are absent.
func toText(v any) (string, bool) {
	switch t := v.(type) {
	case nil, map[string]any, []any:
		return "", false
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", false
		}
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func optFloat(v any) *float64 {
	if f, ok := toFloat(v); ok {
		return &f
	}
	return nil
}

func optNonNegative(v any) *float64 {
	if f, ok := toFloat(v); ok && f >= 0 {
		return &f
	}
	return nil
}

func optText(v any) *string {
	if s, ok := toText(v); ok {
		return &s
	}
	return nil
}

func trimSpace(s string) string { return strings.TrimSpace(s) }

// asMap returns v as a string-keyed mapping, converting yaml-style map[any]any.
func asMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case Special:
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[cast.ToString(k)] = val
		}
		return out
	}
	return nil
}
