package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// indexName is the access index filename at the store root.
const indexName = "index.msgpack"

// IndexRecord tracks usage of one cached entry.
type IndexRecord struct {
	Name       string    `msgpack:"name"`
	Version    string    `msgpack:"version"`
	Size       int64     `msgpack:"size"`
	LastAccess time.Time `msgpack:"last_access"`
}

// Index records when cached entries were last used, so age-based
// cleaning has something to go on. It is advisory: a missing or
// corrupt index is treated as empty, never as an error.
type Index struct {
	Records map[string]IndexRecord `msgpack:"records"`
}

func indexKey(name, version string) string {
	return name + "@" + version
}

// LoadIndex reads the access index from the store root.
func (s *Store) LoadIndex() *Index {
	idx := &Index{Records: make(map[string]IndexRecord)}

	data, err := os.ReadFile(filepath.Join(s.root, indexName))
	if err != nil {
		return idx
	}
	var loaded Index
	if err := msgpack.Unmarshal(data, &loaded); err != nil {
		return idx
	}
	if loaded.Records != nil {
		idx.Records = loaded.Records
	}
	return idx
}

// SaveIndex writes the access index to the store root.
func (s *Store) SaveIndex(idx *Index) error {
	data, err := msgpack.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to encode cache index: %w", err)
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create cache root: %w", err)
	}

	path := filepath.Join(s.root, indexName)
	tmp, err := os.CreateTemp(s.root, ".tmp-index-")
	if err != nil {
		return fmt.Errorf("failed to stage cache index: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Touch records a use of name@version at now.
func (s *Store) Touch(name, version string) error {
	idx := s.LoadIndex()

	size, err := dirSize(s.PackagePath(name, version))
	if err != nil {
		size = 0
	}
	idx.Records[indexKey(name, version)] = IndexRecord{
		Name:       name,
		Version:    version,
		Size:       size,
		LastAccess: time.Now().UTC(),
	}
	return s.SaveIndex(idx)
}

// Forget drops name@version from the index.
func (s *Store) Forget(name, version string) error {
	idx := s.LoadIndex()
	delete(idx.Records, indexKey(name, version))
	return s.SaveIndex(idx)
}

// StaleEntries returns indexed entries last used before cutoff, oldest
// first. Entries the index never saw are not reported.
func (idx *Index) StaleEntries(cutoff time.Time) []IndexRecord {
	var stale []IndexRecord
	for _, record := range idx.Records {
		if record.LastAccess.Before(cutoff) {
			stale = append(stale, record)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].LastAccess.Before(stale[j].LastAccess)
	})
	return stale
}
