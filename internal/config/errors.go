package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// FieldError is a problem with one configuration key.
type FieldError struct {
	// Key is the dotted path of the setting, e.g. "backend.base_url".
	Key     string
	Message string
}

func (f FieldError) String() string {
	return f.Key + ": " + f.Message
}

// ValidationError lists every invalid setting found by Validate.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	lines := lo.Map(e.Fields, func(f FieldError, _ int) string { return f.String() })
	switch len(lines) {
	case 0:
		return "invalid config"
	case 1:
		return "invalid config: " + lines[0]
	default:
		return fmt.Sprintf("invalid config (%d settings):\n  %s", len(lines), strings.Join(lines, "\n  "))
	}
}

// Add records a problem with key.
func (e *ValidationError) Add(key, msg string) {
	e.Fields = append(e.Fields, FieldError{Key: key, Message: msg})
}

// Addf records a formatted problem with key.
func (e *ValidationError) Addf(key, format string, args ...any) {
	e.Add(key, fmt.Sprintf(format, args...))
}

// Has reports whether key has at least one problem.
func (e *ValidationError) Has(key string) bool {
	return lo.ContainsBy(e.Fields, func(f FieldError) bool { return f.Key == key })
}

// Keys returns the distinct invalid keys in sorted order.
func (e *ValidationError) Keys() []string {
	keys := lo.Uniq(lo.Map(e.Fields, func(f FieldError, _ int) string { return f.Key }))
	sort.Strings(keys)
	return keys
}

// ToError returns e, or nil when nothing was recorded.
func (e *ValidationError) ToError() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
