package marketplace

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RawProduct is one marketplace product record exactly as the marketplace API
// returned it, decoded from JSON. Field names and nesting are marketplace-specific;
// only the per-marketplace ProductMapper knows how to read it.
type RawProduct map[string]any

// String returns the trimmed string value at key, or "" when absent or not a string-like value
func (r RawProduct) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		// JSON numbers decode to float64; ids frequently arrive numeric
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// Decimal returns the decimal value at key, falling back to zero when the value
// is absent or unparseable. Marketplace feeds routinely carry numbers as strings.
func (r RawProduct) Decimal(key string) decimal.Decimal {
	v, ok := r[key]
	if !ok || v == nil {
		return decimal.Zero
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Int returns the integer value at key, falling back to zero when the value is
// absent, unparseable, or fractional input truncates toward zero.
func (r RawProduct) Int(key string) int64 {
	v, ok := r[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// Map returns the nested object at key, or nil
func (r RawProduct) Map(key string) RawProduct {
	if m, ok := r[key].(map[string]any); ok {
		return RawProduct(m)
	}
	return nil
}

// Slice returns the array value at key, or nil
func (r RawProduct) Slice(key string) []any {
	if s, ok := r[key].([]any); ok {
		return s
	}
	return nil
}

// ImageURL extracts a plain URL from one element of a marketplace image list.
// Marketplaces disagree on shape: a bare string, {"url": ...}, or {"src": ...}.
// Shape resolution happens here so nothing downstream branches on it.
func ImageURL(v any) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case map[string]any:
		for _, key := range []string{"url", "src", "imageUrl", "link"} {
			if s, ok := img[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
