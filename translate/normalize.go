// Natural value normalization.
//
// Free-text phrases like "9am" or "10 June 2025" are normalized to canonical
// machine formats (24-hour HH:MM, ISO YYYY-MM-DD) before translation and
// validation. A value that cannot be normalized is an UnparsableValue, which
// the orchestrator turns into a corrective prompt, never a raw format error.

package translate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carebridge/carebridge/tools"
)

// ErrUnparsableValue is returned when a natural phrase cannot be normalized
// to its field's canonical format.
var ErrUnparsableValue = errors.New("unparsable value")

// Accepted input layouts, tried in order. Outputs are always canonical.
var (
	timeLayouts = []string{
		"15:04",
		"15:04:05",
		"3:04pm",
		"3:04 pm",
		"3pm",
		"3 pm",
	}
	dateLayouts = []string{
		"2006-01-02",
		"2 January 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"Jan 2, 2006",
		"02/01/2006",
		"2/1/2006",
		"2006/01/02",
	}
)

// NormalizeValue normalizes a raw value according to its field type.
// Non-temporal types are trimmed only.
func NormalizeValue(fieldType tools.FieldType, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	switch fieldType {
	case tools.FieldTime:
		return NormalizeTime(trimmed)
	case tools.FieldDate:
		return NormalizeDate(trimmed)
	case tools.FieldEmail:
		return normalizeEmail(trimmed)
	default:
		return trimmed, nil
	}
}

// NormalizeTime normalizes a time phrase to 24-hour HH:MM.
func NormalizeTime(raw string) (string, error) {
	candidate := strings.ToLower(strings.TrimSpace(raw))
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, candidate); err == nil {
			return parsed.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a recognizable time", ErrUnparsableValue, raw)
}

// NormalizeDate normalizes a date phrase to ISO YYYY-MM-DD.
func NormalizeDate(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, candidate); err == nil {
			return parsed.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a recognizable date", ErrUnparsableValue, raw)
}

func normalizeEmail(raw string) (string, error) {
	at := strings.Index(raw, "@")
	if at < 1 || at == len(raw)-1 || strings.ContainsAny(raw, " \t") {
		return "", fmt.Errorf("%w: %q is not a recognizable email address", ErrUnparsableValue, raw)
	}
	return raw, nil
}
