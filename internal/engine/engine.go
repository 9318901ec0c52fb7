// Package engine provides the core key-value storage engine. It defines
// the pluggable Engine interface (§4.1) and the log-structured LSKV
// implementation (§4.2) built on top of internal/storage and
// internal/record.
package engine

// Engine is the capability set every storage backend behind the server
// exposes: set, get, remove. An Engine value must be cheap to duplicate
// and safe to share across concurrent workers — duplicated handles refer
// to the same underlying state, serializing internally where needed so
// every operation observes a consistent store.
type Engine interface {
	// Set inserts or overwrites the value bound to key.
	Set(key, value string) error

	// Get returns the value bound to key and true, or "" and false if
	// key is not currently bound.
	Get(key string) (string, bool, error)

	// Remove deletes key. Returns a *kverrors.KeyNotFoundError if key is
	// not currently bound.
	Remove(key string) error

	// Close releases the engine's resources. Safe to call once per
	// owning handle; further operations on a closed engine are
	// undefined.
	Close() error
}
