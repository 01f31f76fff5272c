package repository

// KVStore is a string key-value store such as the client's local or
// session-scoped storage. Get reports false for a missing key.
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}
