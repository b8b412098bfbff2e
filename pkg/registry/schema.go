// pkg/registry/schema.go
package registry

// Kind partitions backend actions. Reads may be cached; writes never are.
type Kind string

const (
	KindRead  Kind = "read"
	KindWrite Kind = "write"
)

type ActionRegistry struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Actions     []Action `json:"actions"`
}

type Action struct {
	Name           string                 `json:"name"`
	DisplayName    string                 `json:"displayName"`
	Description    string                 `json:"description"`
	Kind           Kind                   `json:"kind"`
	RequiredParams []string               `json:"requiredParams"`
	ResponseSchema map[string]interface{} `json:"responseSchema"`
	Tags           []string               `json:"tags"`
}
