package dexy

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// IndexStore keeps scan results in a badger database, one key per digest:
// "<scan name>/<hash>" holds the JSON list of files with that digest.
type IndexStore struct {
	db *badger.DB
}

func OpenIndexStore(path string) (*IndexStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}
	return &IndexStore{db: db}, nil
}

func (s *IndexStore) Close() error {
	return s.db.Close()
}

func scanPrefix(name string) []byte {
	return []byte(name + "/")
}

// SaveScan replaces everything stored under name with result.
func (s *IndexStore) SaveScan(name string, result ScanResult) error {
	prefix := scanPrefix(name)
	if err := s.db.DropPrefix(prefix); err != nil {
		return fmt.Errorf("failed to clear scan %s: %w", name, err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for hash, files := range result {
		value, err := json.Marshal(files)
		if err != nil {
			return fmt.Errorf("failed to encode files for %s: %w", hash, err)
		}
		key := append(append([]byte{}, prefix...), hash...)
		if err := wb.Set(key, value); err != nil {
			return fmt.Errorf("failed to store %s: %w", hash, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to write scan %s: %w", name, err)
	}
	return nil
}

// Lookup returns the files stored for one digest of a scan.
func (s *IndexStore) Lookup(name, hash string) ([]ScannedFile, error) {
	var files []ScannedFile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(append(scanPrefix(name), hash...))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &files)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s in scan %s: %w", hash, name, err)
	}
	return files, nil
}

// LoadScan rebuilds the result stored under name. A name that was never
// saved yields an empty result.
func (s *IndexStore) LoadScan(name string) (ScanResult, error) {
	result := ScanResult{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := scanPrefix(name)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			hash := string(item.Key()[len(prefix):])
			var files []ScannedFile
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &files)
			}); err != nil {
				return fmt.Errorf("failed to decode %s: %w", hash, err)
			}
			result[hash] = files
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load scan %s: %w", name, err)
	}
	return result, nil
}

// Scans lists the names of the scans held in the store.
func (s *IndexStore) Scans() ([]string, error) {
	names := map[string]struct{}{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if i := strings.LastIndexByte(key, '/'); i > 0 {
				names[key[:i]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}

	list := make([]string, 0, len(names))
	for name := range names {
		list = append(list, name)
	}
	sort.Strings(list)
	return list, nil
}
