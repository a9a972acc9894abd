// Package credentials manages the durable authentication material the
// transport library writes per session. Material is addressed by an
// opaque scope name; the orchestrator only ever asks whether a scope
// holds material, copies a scope, or removes one.
package credentials

// Store is the credential-material store contract.
type Store interface {
	Exists(scope string) (bool, error)
	Copy(fromScope, toScope string) error
	Delete(scope string) error
}
