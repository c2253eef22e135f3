package settings

import (
	"encoding/json"
	"fmt"
)

// Partial is a shallow settings update: only the keys present are
// applied, at top level. Values are opaque JSON.
type Partial map[string]json.RawMessage

// Merge overlays partial onto base, key by key. Keys absent from the
// partial are untouched; keys present overwrite the base field
// entirely, including nested structures like questions. Unknown keys
// are dropped silently.
func Merge(base Settings, partial Partial) (Settings, error) {
	if len(partial) == 0 {
		return base, nil
	}

	raw, err := json.Marshal(base)
	if err != nil {
		return base, fmt.Errorf("settings: marshal base: %w", err)
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return base, fmt.Errorf("settings: unmarshal base: %w", err)
	}
	for k, v := range partial {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return base, fmt.Errorf("settings: marshal merged: %w", err)
	}

	var out Settings
	if err := json.Unmarshal(merged, &out); err != nil {
		return base, fmt.Errorf("settings: invalid partial: %w", err)
	}
	return out, nil
}
