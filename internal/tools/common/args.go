package common

import (
	"fmt"
	"strconv"
	"strings"
)

// StringArg returns args[key] as a trimmed string. Numbers are formatted
// without exponent; missing or null values yield "".
func StringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// MissingArgs returns the names in required with no non-empty value in args.
func MissingArgs(args map[string]any, required []string) []string {
	var missing []string
	for _, name := range required {
		if StringArg(args, name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
