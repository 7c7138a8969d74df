// Package format renders backend values for display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Null is shown for missing and null values
const Null = "NULL"

// Cell converts a decoded JSON value to its single-line display string.
// Objects and arrays are rendered as compact JSON.
func Cell(val any) string {
	switch v := val.(type) {
	case nil:
		return Null
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return Number(v)
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Number renders a JSON number without exponent notation for integral values
func Number(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IsJSON reports whether a string holds a JSON object or array
func IsJSON(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || (value[0] != '{' && value[0] != '[') {
		return false
	}
	return json.Valid([]byte(value))
}

// Pretty renders a value as indented JSON. Strings that hold JSON are
// re-indented; other strings are returned unchanged.
func Pretty(val any) (string, error) {
	if s, ok := val.(string); ok {
		if !IsJSON(s) {
			return s, nil
		}
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return "", fmt.Errorf("invalid JSON: %w", err)
		}
		val = parsed
	}
	if val == nil {
		return Null, nil
	}

	b, err := json.MarshalIndent(val, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format: %w", err)
	}
	return string(b), nil
}

// Truncate shortens s to at most maxLen runes, preferring a JSON-friendly
// boundary in the second half
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string([]rune(s)[:maxLen])
	}

	truncated := string([]rune(s)[:maxLen-3])
	if lastGood := strings.LastIndexAny(truncated, " ,{}[]"); lastGood > len(truncated)/2 {
		truncated = truncated[:lastGood]
	}
	return truncated + "..."
}

// SingleLine collapses newlines and tabs so a value fits one grid row
func SingleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
}

// Count renders a row count with thousands separators
func Count(n int64) string {
	return humanize.Comma(n)
}

// SizeMB renders a size reported in megabytes
func SizeMB(mb float64) string {
	if mb <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(mb * 1000 * 1000))
}

// Percent renders a filtered/total ratio
func Percent(part, total int64) string {
	if total <= 0 {
		return "-"
	}
	return humanize.FtoaWithDigits(float64(part)*100/float64(total), 1) + "%"
}
