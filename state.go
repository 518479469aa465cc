package wizard

import (
	"sort"
	"strings"
	"time"
)

// State is a snapshot of one wizard session.
type State struct {
	WizardID         string         `json:"wizardId"`
	EntityID         string         `json:"entityId,omitempty"`
	CurrentStepID    string         `json:"currentStepId"`
	FormData         map[string]any `json:"formData"`
	CompletedStepIDs []string       `json:"completedStepIds"`
	Status           Status         `json:"status"`
	LastError        string         `json:"lastError,omitempty"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// IsCompleted reports whether a step has been completed in this session.
func (s State) IsCompleted(stepID string) bool {
	for _, id := range s.CompletedStepIDs {
		if id == stepID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s State) Clone() State {
	cp := s
	cp.FormData = CloneData(s.FormData)
	cp.CompletedStepIDs = append([]string(nil), s.CompletedStepIDs...)
	return cp
}

// CloneData deep-copies nested maps and slices of form data.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneData(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, item := range t {
			out[i] = CloneData(item)
		}
		return out
	}
	return v
}

// MergeData merges partial into a copy of base. Top-level keys are
// replaced, nested maps are merged key by key and slices are replaced.
// Keys present in base are never dropped.
func MergeData(base, partial map[string]any) map[string]any {
	out := CloneData(base)
	for k, v := range partial {
		if incoming, ok := v.(map[string]any); ok {
			if existing, ok := out[k].(map[string]any); ok {
				out[k] = MergeData(existing, incoming)
				continue
			}
		}
		out[k] = cloneValue(v)
	}
	return out
}

// Expand turns dotted keys such as "address.postcode" into nested maps so
// renderers can submit flat input ids. Later keys win on conflicts.
func Expand(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := cloneValue(flat[k])
		if nested, ok := v.(map[string]any); ok {
			v = Expand(nested)
		}
		parts := strings.Split(k, ".")
		node := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		last := parts[len(parts)-1]
		if existing, ok := node[last].(map[string]any); ok {
			if incoming, ok := v.(map[string]any); ok {
				node[last] = MergeData(existing, incoming)
				continue
			}
		}
		node[last] = v
	}
	return out
}
