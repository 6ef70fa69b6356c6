package manifest

// Merge returns base with local laid over it. Local values win; when both
// sides hold an object the two are merged recursively. Arrays and scalars
// from local replace the base value whole. Neither input is modified.
func Merge(base, local map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(local))
	for k, v := range base {
		out[k] = clone(v)
	}
	for k, lv := range local {
		lm, lok := lv.(map[string]any)
		bm, bok := out[k].(map[string]any)
		if lok && bok {
			out[k] = Merge(bm, lm)
			continue
		}
		out[k] = clone(lv)
	}
	return out
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = clone(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = clone(e)
		}
		return s
	default:
		return v
	}
}
