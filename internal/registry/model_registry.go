// Package registry exposes the model catalogue advertised on /v1/models.
// The proxy fronts a single Noupe agent, so the catalogue is just the
// configured alias list; model names are presentation-only and do not change
// routing.
package registry

import "time"

// Model is one OpenAI-compatible model record.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelRegistry holds the advertised model list. Read-only after construction.
type ModelRegistry struct {
	models  []string
	created int64
}

// NewModelRegistry builds a registry from the configured model names.
func NewModelRegistry(models []string) *ModelRegistry {
	copied := make([]string, len(models))
	copy(copied, models)
	return &ModelRegistry{
		models:  copied,
		created: time.Now().Unix(),
	}
}

// List returns the model records in configuration order.
func (r *ModelRegistry) List() []Model {
	out := make([]Model, 0, len(r.models))
	for _, name := range r.models {
		out = append(out, Model{
			ID:      name,
			Object:  "model",
			Created: r.created,
			OwnedBy: "system",
		})
	}
	return out
}

// Supports reports whether name is in the configured list.
func (r *ModelRegistry) Supports(name string) bool {
	for _, m := range r.models {
		if m == name {
			return true
		}
	}
	return false
}
