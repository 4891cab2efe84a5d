package app

// SPDX-License-Identifier: Apache-2.0

import (
	"fmt"
	"io"

	"github.com/kvrel/kvrel/funcs"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
)

var (
	errUnrecognizedTopLevelKeyMsg = "%s: not a recognized top-level configuration section"
)

// Storage contains the kvstore portion of configuration: where the single
// bbolt file lives and how it is opened.
type Storage struct {
	// DataDir is the directory the engine's KV file lives in.
	DataDir string `mapstructure:"data_dir"`
	// FileName is the bbolt file's name within DataDir.
	FileName string `mapstructure:"file_name"`
	// Fsync controls whether bbolt flushes to disk on every commit
	// (kvstore.Open's fsync argument, bbolt's NoSync inverted).
	Fsync bool `mapstructure:"fsync"`
	// MaxResultRows caps how many rows a single SELECT may materialize
	// into its result buffer before the engine gives up and errors,
	// since spec.md documents unbounded, non-streaming results as a
	// non-goal rather than a guarantee.
	MaxResultRows int `mapstructure:"max_result_rows"`
}

// Configuration is everything Load can produce from a TOML document: the
// engine's own storage settings, nothing more. Unlike the teacher's
// config loader (app.Load in bantling/micro, which treats every
// unrecognized top-level key as a user-defined schema type), this engine's
// tables are declared by CREATE TABLE at runtime, not by config - so the
// only recognized section is "engine_", and any other top-level key is a
// load error rather than being silently absorbed.
type Configuration struct {
	Storage Storage
}

// defaultConfiguration is the default Configuration, where default values
// are not necessarily zero values (Path: bantling/micro's
// defaultConfiguration pattern in app/config.go).
var defaultConfiguration = Configuration{
	Storage: Storage{
		DataDir:       ".",
		FileName:      "kvrel.db",
		Fsync:         true,
		MaxResultRows: 100_000,
	},
}

// Load decodes a TOML document into a Configuration. The approach mirrors
// bantling/micro's app.Load: decode into a map[string]any first, then
// dispatch the one recognized top-level key ("engine_") into the typed
// Storage field via mapstructure; any other top-level key is rejected.
// Load panics on a malformed document or an unrecognized key - same as the
// teacher, which treats a bad config file as a startup-time bug, not a
// recoverable runtime condition.
func Load(src io.Reader) Configuration {
	var (
		config      = defaultConfiguration
		configMap   = map[string]any{}
		tomlDecoder = toml.NewDecoder(src)
	)

	funcs.Must(tomlDecoder.Decode(&configMap))

	for k, v := range configMap {
		switch k {
		case "engine_":
			msdc := mapstructure.DecoderConfig{ErrorUnused: true, Result: &config.Storage}
			msDecoder := funcs.MustValue(mapstructure.NewDecoder(&msdc))
			funcs.Must(msDecoder.Decode(v))

		default:
			panic(fmt.Errorf(errUnrecognizedTopLevelKeyMsg, k))
		}
	}

	return config
}
