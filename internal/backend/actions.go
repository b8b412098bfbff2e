package backend

import "contract-bot/pkg/registry"

const (
	ActionContracts       = "contracts"
	ActionStats           = "stats"
	ActionRegenerate      = "regenerate"
	ActionGenerateInvoice = "generateInvoice"
	ActionGenerateAct     = "generateAct"
	ActionUpdate          = "update"
	ActionHealth          = "health"
)

// Classifier answers whether an action mutates backend state.
// Unregistered actions count as writes so they are never cached.
type Classifier struct {
	actions map[string]registry.Action
}

func NewClassifier(reg *registry.ActionRegistry) *Classifier {
	c := &Classifier{actions: make(map[string]registry.Action, len(reg.Actions))}
	for _, a := range reg.Actions {
		c.actions[a.Name] = a
	}
	return c
}

func (c *Classifier) IsWrite(action string) bool {
	a, ok := c.actions[action]
	return !ok || a.Kind == registry.KindWrite
}

func (c *Classifier) RequiredParams(action string) []string {
	return c.actions[action].RequiredParams
}
