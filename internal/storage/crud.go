package storage

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/manav03panchal/waterme/internal/model"
)

var (
	// ErrKeyNotFound is returned when a key is not found in the database.
	ErrKeyNotFound = errors.New("key not found")
)

// IsErrKeyNotFound returns true if the error is a key not found error.
func IsErrKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound) || errors.Is(err, badger.ErrKeyNotFound)
}

// Txn is a read or read-write transaction over JSON documents.
type Txn struct {
	txn *badger.Txn
}

// View runs fn in a read-only transaction. All reads inside fn see one
// consistent snapshot.
func (d *DB) View(fn func(*Txn) error) error {
	return d.db.View(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
}

// Update runs fn in a read-write transaction. The transaction commits when fn
// returns nil and is discarded otherwise.
func (d *DB) Update(fn func(*Txn) error) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
}

// Get retrieves a document by key and unmarshals it into v.
func (t *Txn) Get(key string, v model.Model) error {
	_, err := t.GetVersion(key, v)
	return err
}

// GetVersion is Get that also returns the commit version of the document.
func (t *Txn) GetVersion(key string, v model.Model) (uint64, error) {
	item, err := t.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, ErrKeyNotFound
		}
		return 0, err
	}
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, v); err != nil {
			return err
		}
		v.SetKey(key)
		return nil
	})
	return item.Version(), err
}

// Set stores a document under its key.
func (t *Txn) Set(v model.Model) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.txn.Set([]byte(v.GetKey()), data)
}

// SetBytes stores raw bytes with the given key.
func (t *Txn) SetBytes(key string, data []byte) error {
	return t.txn.Set([]byte(key), data)
}

// GetBytes retrieves raw bytes by key.
func (t *Txn) GetBytes(key string) ([]byte, error) {
	item, err := t.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Delete removes a key.
func (t *Txn) Delete(key string) error {
	return t.txn.Delete([]byte(key))
}

// Exists checks if a key exists.
func (t *Txn) Exists(key string) (bool, error) {
	_, err := t.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListByPrefix retrieves all keys with the given prefix.
func (t *Txn) ListByPrefix(prefix string) ([]string, error) {
	var keys []string
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Item().KeyCopy(nil)))
	}
	return keys, nil
}

// Versioned is a decoded document with its commit version.
type Versioned[T model.Model] struct {
	Doc     T
	Version uint64
}

// ScanPrefix decodes every document with the given prefix, in key order.
func ScanPrefix[T model.Model](t *Txn, prefix string, newFunc func() T) ([]Versioned[T], error) {
	var results []Versioned[T]
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 100
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		err := item.Value(func(val []byte) error {
			v := newFunc()
			if err := json.Unmarshal(val, v); err != nil {
				return err
			}
			v.SetKey(string(item.KeyCopy(nil)))
			results = append(results, Versioned[T]{Doc: v, Version: item.Version()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// GetAllByPrefix retrieves all documents with the given prefix.
func GetAllByPrefix[T model.Model](d *DB, prefix string, newFunc func() T) ([]T, error) {
	var results []T
	err := d.View(func(t *Txn) error {
		docs, err := ScanPrefix(t, prefix, newFunc)
		if err != nil {
			return err
		}
		results = make([]T, len(docs))
		for i, doc := range docs {
			results[i] = doc.Doc
		}
		return nil
	})
	return results, err
}

// CountPrefix counts the keys with the given prefix.
func CountPrefix(t *Txn, prefix string) (int, error) {
	keys, err := t.ListByPrefix(prefix)
	return len(keys), err
}
