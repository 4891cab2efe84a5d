// SPDX-License-Identifier: Apache-2.0

// Package kvstore is the engine's ordered key-value abstraction: a single
// bbolt file holding one namespace (bucket) per logical keyspace - the
// catalog and one per user table. A namespace is exactly the "open a
// cursor, put with optional no-overwrite, delete the current row"
// primitive set the engine needs and nothing more.
package kvstore

import (
	"errors"
	"os"
	"time"

	"go.etcd.io/bbolt"
)

// ErrKeyExists is returned by Namespace.Put when noOverwrite is true and
// key is already present.
var ErrKeyExists = errors.New("kvstore: key already exists")

// Store is a single underlying KV file. Every command opens the namespaces
// it needs through a Tx and releases them implicitly when the Tx's
// Update/View call returns; no Namespace or cursor outlives its
// transaction.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the KV file at path. fsync controls
// whether bbolt flushes to disk on every commit (bbolt's NoSync inverted);
// engines running throwaway/test workloads set it false for speed.
func Open(path string, fsync bool) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	db.NoSync = !fsync

	return &Store{db: db}, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a single command's view onto the store: a read-write or read-only
// bbolt transaction restricted to this package's namespace operations.
type Tx struct {
	tx *bbolt.Tx
}

// Update runs fn inside a single read-write transaction, committing on a
// nil return and rolling back otherwise - the engine's unit of atomicity
// for CREATE/DROP/INSERT/DELETE.
func (s *Store) Update(fn func(*Tx) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// View runs fn inside a single read-only transaction - used by SELECT,
// SHOW TABLES, and EXPLAIN.
func (s *Store) View(fn func(*Tx) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Namespace opens (creating if necessary) the keyspace named name. Only
// valid inside an Update transaction.
func (t *Tx) Namespace(name string) (*Namespace, error) {
	b, err := t.tx.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, err
	}

	return &Namespace{b: b}, nil
}

// NamespaceReadOnly looks up an existing keyspace without creating it. The
// second return is false if it does not exist.
func (t *Tx) NamespaceReadOnly(name string) (*Namespace, bool) {
	b := t.tx.Bucket([]byte(name))
	if b == nil {
		return nil, false
	}

	return &Namespace{b: b}, true
}

// DeleteNamespace removes the keyspace named name entirely, if present.
func (t *Tx) DeleteNamespace(name string) error {
	err := t.tx.DeleteBucket([]byte(name))
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil
	}

	return err
}

// Namespace is one ordered keyspace: a catalog, or a single user table's
// row store.
type Namespace struct {
	b *bbolt.Bucket
}

// Put stores value under key. When noOverwrite is true and key is already
// present, Put returns ErrKeyExists and leaves the existing value intact.
func (n *Namespace) Put(key, value []byte, noOverwrite bool) error {
	if noOverwrite && n.b.Get(key) != nil {
		return ErrKeyExists
	}

	return n.b.Put(key, value)
}

// Get returns the value stored under key, and whether it was present.
func (n *Namespace) Get(key []byte) ([]byte, bool) {
	v := n.b.Get(key)
	if v == nil {
		return nil, false
	}

	return v, true
}

// Delete removes key, a no-op if it is not present.
func (n *Namespace) Delete(key []byte) error {
	return n.b.Delete(key)
}

// Cursor opens a key-ordered cursor over this namespace.
func (n *Namespace) Cursor() *RowCursor {
	return &RowCursor{cursor: n.b.Cursor()}
}

// RowCursor walks a namespace's entries in key order. It is a thin wrapper
// over the underlying bbolt cursor rather than a generic iterator:
// deleting the row a cursor currently sits on is a first-class operation
// here.
type RowCursor struct {
	cursor  *bbolt.Cursor
	started bool
}

// Next advances the cursor and returns the row it now sits on. ok is false
// once the namespace is exhausted.
func (c *RowCursor) Next() (key, value []byte, ok bool) {
	if !c.started {
		c.started = true
		key, value = c.cursor.First()
	} else {
		key, value = c.cursor.Next()
	}

	return key, value, key != nil
}

// DeleteCurrent removes the row the cursor currently sits on. Safe to call
// during iteration; the next Next() call continues from the following row.
func (c *RowCursor) DeleteCurrent() error {
	return c.cursor.Delete()
}

// IsNotExist reports whether err indicates a missing file, so Open's
// caller can distinguish "no database yet" from a genuine I/O failure.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
