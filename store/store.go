// Package store implements the mesh's durable, ordered key/value map:
// one isolated namespace ("tree") per node (and one for the registry
// itself), backed by go.etcd.io/bbolt. bbolt gives ordered iteration,
// prefix cursors, and per-transaction atomicity out of the box, which
// is exactly the contract both the registry and every node's local
// state need without hand-rolling an on-disk format.
package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("kosmos")

// Entry is one (key, value) pair yielded by Iter/ScanPrefix, in key
// order.
type Entry struct {
	Key   []byte
	Value []byte
}

// Tree is one isolated durable key/value namespace.
type Tree struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the durable tree for namespace
// under dir, e.g. Open("/tmp/kosmos/db/", "kosmos") for the registry's
// own store.
func Open(dir, namespace string) (*Tree, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create db dir: %w", err)
	}
	path := filepath.Join(dir, namespace+".db")
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init bucket: %w", err)
	}
	return &Tree{db: db}, nil
}

// Close releases the underlying database file.
func (t *Tree) Close() error {
	return t.db.Close()
}

// Insert atomically sets key to value, overwriting any prior value.
func (t *Tree) Insert(key, value []byte) error {
	return t.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

// Get returns the value for key, or found=false if it is absent.
func (t *Tree) Get(key []byte) (value []byte, found bool, err error) {
	err = t.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v != nil {
			value = append([]byte(nil), v...)
			found = true
		}
		return nil
	})
	return value, found, err
}

// Remove deletes key if present; removing an absent key is a no-op.
func (t *Tree) Remove(key []byte) error {
	return t.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

// Contains reports whether key is present.
func (t *Tree) Contains(key []byte) (bool, error) {
	_, found, err := t.Get(key)
	return found, err
}

// Clear removes every entry in the tree.
func (t *Tree) Clear() error {
	return t.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
}

// Iter returns every entry in key order.
func (t *Tree) Iter() ([]Entry, error) {
	var entries []Entry
	err := t.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			entries = append(entries, Entry{
				Key:   append([]byte(nil), k...),
				Value: append([]byte(nil), v...),
			})
			return nil
		})
	})
	return entries, err
}

// ScanPrefix returns every entry whose key starts with prefix, in key
// order. This is what the registry uses to resolve a logical prefix
// like "yukikaze" to its canonical suffixed name.
func (t *Tree) ScanPrefix(prefix []byte) ([]Entry, error) {
	var entries []Entry
	err := t.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			entries = append(entries, Entry{
				Key:   append([]byte(nil), k...),
				Value: append([]byte(nil), v...),
			})
		}
		return nil
	})
	return entries, err
}
