package validate

// DepthSentinel replaces any value nested beyond the configured depth
// during sanitization.
const DepthSentinel = "[MAX DEPTH EXCEEDED]"

// maxListLen caps list length during sanitization.
const maxListLen = 100

// SanitizeForStorage bounds a decoded JSON value before persistence:
// nil-valued map keys are dropped, strings longer than maxStringLen
// runes are truncated on a rune boundary, lists are capped at 100
// elements, and anything nested beyond maxDepth is replaced with
// DepthSentinel. The input is not mutated.
func SanitizeForStorage(v any, maxDepth, maxStringLen int) any {
	return sanitize(v, 0, maxDepth, maxStringLen)
}

func sanitize(v any, depth, maxDepth, maxStringLen int) any {
	if depth > maxDepth {
		return DepthSentinel
	}

	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			out[k] = sanitize(item, depth+1, maxDepth, maxStringLen)
		}
		return out
	case []any:
		n := len(val)
		if n > maxListLen {
			n = maxListLen
		}
		out := make([]any, 0, n)
		for _, item := range val[:n] {
			out = append(out, sanitize(item, depth+1, maxDepth, maxStringLen))
		}
		return out
	case string:
		if maxStringLen > 0 && len(val) > maxStringLen {
			if runes := []rune(val); len(runes) > maxStringLen {
				return string(runes[:maxStringLen])
			}
		}
		return val
	default:
		return val
	}
}
