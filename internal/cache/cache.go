// Package cache provides harvest.Cache implementations: a bounded
// in-memory LRU, a directory of JSON files and a SQLite table. None of
// them expire entries on their own; hosts call Purge explicitly.
package cache

import "time"

// Info describes a stored entry.
type Info struct {
	Key      string
	Size     int
	StoredAt time.Time
}

// Persistent is implemented by stores that survive the process.
type Persistent interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	List() ([]Info, error)
	Purge(maxAge time.Duration) (int, error)
}
