package generator

import (
	"fmt"
	"sort"
)

// ModelMeta overrides how a single discovered model is handled.
type ModelMeta struct {
	// Skip leaves the model out of both model-config.json and definitions.
	Skip bool
	// SkipCustom keeps the model in model-config.json but writes no
	// definition or logic file for it.
	SkipCustom bool
}

// ParseModelMeta validates raw per-model overrides, as decoded from JSON or
// YAML. Every entry must set skip and/or skipCustom to a boolean and nothing
// else. skip_custom is accepted as a spelling of skipCustom.
func ParseModelMeta(raw map[string]map[string]any) (map[string]ModelMeta, error) {
	out := make(map[string]ModelMeta, len(raw))

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := raw[name]
		if len(entry) == 0 {
			return nil, fmt.Errorf("%w: %s: expected skip and/or skipCustom", ErrInvalidModelMeta, name)
		}
		var meta ModelMeta
		for key, value := range entry {
			b, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s: expected a boolean, got %T", ErrInvalidModelMeta, name, key, value)
			}
			switch key {
			case "skip":
				meta.Skip = b
			case "skipCustom", "skip_custom", "skipcustom":
				meta.SkipCustom = b
			default:
				return nil, fmt.Errorf("%w: %s: unknown key %q", ErrInvalidModelMeta, name, key)
			}
		}
		out[name] = meta
	}
	return out, nil
}
