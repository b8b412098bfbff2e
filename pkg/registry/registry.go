// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed actions.json
var defaultActions []byte

func LoadRegistry(path string) (*ActionRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and checks a registry document.
func Parse(data []byte) (*ActionRegistry, error) {
	var reg ActionRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Default returns the registry compiled into the binary.
func Default() *ActionRegistry {
	reg, err := Parse(defaultActions)
	if err != nil {
		panic(fmt.Sprintf("embedded action registry is invalid: %v", err))
	}
	return reg
}

// Validate ensures every action has a unique name and exactly one kind.
func (r *ActionRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Actions))
	for _, a := range r.Actions {
		if a.Name == "" {
			return fmt.Errorf("action without name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate action %q", a.Name)
		}
		seen[a.Name] = true
		if a.Kind != KindRead && a.Kind != KindWrite {
			return fmt.Errorf("action %q has invalid kind %q", a.Name, a.Kind)
		}
	}
	return nil
}

func (r *ActionRegistry) Lookup(name string) (Action, bool) {
	for _, a := range r.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// Schemas returns the response schema of every action that declares one.
func (r *ActionRegistry) Schemas() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{})
	for _, a := range r.Actions {
		if len(a.ResponseSchema) > 0 {
			out[a.Name] = a.ResponseSchema
		}
	}
	return out
}
