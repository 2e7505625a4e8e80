package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
)

// record is the JSON document stored per cache key.
type record struct {
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
	Body     []byte    `json:"body"`
}

// File stores one JSON file per key beneath a directory. File names are
// the md5 of the key.
type File struct {
	dir string
}

// NewFile returns a file store rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cache error creating directory: %w", err)
	}
	return &File{dir: dir}, nil
}

// DefaultDir returns ~/.harvest/cache.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".harvest", "cache"), nil
}

func (f *File) path(key string) string {
	sum := md5.Sum([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+".json")
}

func (f *File) load(path string) (record, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record{}, false
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Back up the corrupt file and treat it as a miss.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		log.WithError(err).Warnf("corrupt cache file %s backed up to %s", path, backupPath)
		return record{}, false
	}
	return rec, true
}

// Get returns the body stored under key.
func (f *File) Get(key string) ([]byte, bool) {
	rec, ok := f.load(f.path(key))
	if !ok || rec.Key != key {
		return nil, false
	}
	return rec.Body, true
}

// Set atomically writes value under key.
func (f *File) Set(key string, value []byte) error {
	path := f.path(key)
	data, err := json.MarshalIndent(record{Key: key, StoredAt: time.Now().UTC(), Body: value}, "", "  ")
	if err != nil {
		return fmt.Errorf("cache error marshalling JSON: %w", err)
	}

	// Atomic write: write to a unique temp file then rename, so concurrent
	// writers of one key never share a temp file.
	tmp, err := os.CreateTemp(f.dir, "*.tmp")
	if err != nil {
		return fmt.Errorf("cache error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cache error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cache error renaming temp file: %w", err)
	}
	return nil
}

func (f *File) files() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("cache error listing %s: %w", f.dir, err)
	}
	return matches, nil
}

// List returns every stored entry, oldest first.
func (f *File) List() ([]Info, error) {
	paths, err := f.files()
	if err != nil {
		return nil, err
	}
	var infos []Info
	for _, p := range paths {
		rec, ok := f.load(p)
		if !ok {
			continue
		}
		infos = append(infos, Info{Key: rec.Key, Size: len(rec.Body), StoredAt: rec.StoredAt})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].StoredAt.Before(infos[j].StoredAt) })
	return infos, nil
}

// Purge removes entries stored more than maxAge ago; maxAge <= 0 removes
// everything. It returns the number of removed entries.
func (f *File) Purge(maxAge time.Duration) (int, error) {
	paths, err := f.files()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, p := range paths {
		if maxAge > 0 {
			rec, ok := f.load(p)
			if ok && time.Since(rec.StoredAt) <= maxAge {
				continue
			}
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("cache error removing %s: %w", p, err)
		}
		log.Debugf("removed cache file %s", p)
		removed++
	}
	return removed, nil
}

// Dir returns the store's directory.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) String() string {
	return "file:" + strings.TrimSuffix(f.dir, string(filepath.Separator))
}
