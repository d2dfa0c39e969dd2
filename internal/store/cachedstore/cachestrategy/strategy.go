// Package cachestrategy defines cache eviction strategy interfaces.
package cachestrategy

// Strategy defines the interface for cache eviction strategies.
// Bytes reports the summed length of the cached values so a backend can
// hold the cache to a byte budget.
type Strategy interface {
	Get(key string) ([]byte, bool)
	Add(key string, value []byte) bool
	Remove(key string)
	RemoveOldest() (string, bool)
	Len() int
	Bytes() int64
}
