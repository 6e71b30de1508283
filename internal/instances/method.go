// Package instances implements the Instance Tracker (a weak-reference
// registry of live instances keyed by class identity) and the Instance
// Updater (the post-redefinition update-strategy decision procedure).
package instances

// UpdateMethod names the strategy applied to live instances after a class
// redefinition.
type UpdateMethod string

const (
	AUTOMATIC     UpdateMethod = "AUTOMATIC"
	REFLECTION    UpdateMethod = "REFLECTION"
	PROXY_REFRESH UpdateMethod = "PROXY_REFRESH"
	FACTORY_RESET UpdateMethod = "FACTORY_RESET"
	NO_UPDATE     UpdateMethod = "NO_UPDATE"
)

func (m UpdateMethod) String() string { return string(m) }
