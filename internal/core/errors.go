package core

import (
	"errors"
	"fmt"
)

// ErrConfigFormat matches every ConfigFormatError via errors.Is.
var ErrConfigFormat = errors.New("config format error")

// ConfigFormatError reports a mapping document whose shape is not the one required.
type ConfigFormatError struct {
	Source string // file or document name, may be empty
	Key    string
	Reason string
}

func (e *ConfigFormatError) Error() string {
	switch {
	case e.Source != "" && e.Key != "":
		return fmt.Sprintf("config format error in %s at %q: %s", e.Source, e.Key, e.Reason)
	case e.Key != "":
		return fmt.Sprintf("config format error at %q: %s", e.Key, e.Reason)
	case e.Source != "":
		return fmt.Sprintf("config format error in %s: %s", e.Source, e.Reason)
	}
	return "config format error: " + e.Reason
}

func (e *ConfigFormatError) Is(target error) bool {
	return target == ErrConfigFormat
}

func formatErr(key, reason string, args ...any) error {
	return &ConfigFormatError{Key: key, Reason: fmt.Sprintf(reason, args...)}
}
