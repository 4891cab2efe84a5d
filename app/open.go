package app

// SPDX-License-Identifier: Apache-2.0

import (
	"path/filepath"

	"github.com/kvrel/kvrel/engine"
	"github.com/kvrel/kvrel/kvstore"
)

// Open opens the kvstore.Store named by config.Storage and wraps it in an
// Engine, the one place Configuration, kvstore, and engine are tied
// together. Callers own the returned Store's lifetime and must Close it
// when done; the Engine itself holds no resources beyond the Store.
func Open(config Configuration) (*engine.Engine, *kvstore.Store, error) {
	path := filepath.Join(config.Storage.DataDir, config.Storage.FileName)

	store, err := kvstore.Open(path, config.Storage.Fsync)
	if err != nil {
		return nil, nil, err
	}

	return engine.New(store, nil, config.Storage.MaxResultRows), store, nil
}
