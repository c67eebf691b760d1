package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// Coercer converts a raw input value into the type the bound path expects.
type Coercer func(raw any) (any, error)

// Number coerces numeric controls: numeric types widen to float64, strings
// parse as decimal.
func Number(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("coerce %q to number: %w", v, err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to number", raw)
}

// Boolean coerces checkbox-style controls. Strings accept the strconv
// forms plus "on", the conventional checked value of HTML checkboxes.
func Boolean(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		if s == "on" {
			return true, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("coerce %q to bool: %w", v, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to bool", raw)
}

// Text coerces any value to its string form. Never fails.
func Text(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return fmt.Sprint(raw), nil
}

// StringList coerces multi-valued controls to a []any of strings: string
// slices convert element-wise, a plain string splits on commas.
func StringList(raw any) (any, error) {
	switch v := raw.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = fmt.Sprint(item)
		}
		return out, nil
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, nil
	case string:
		parts := strings.Split(v, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to string list", raw)
}
