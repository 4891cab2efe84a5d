// Package app loads the engine's TOML configuration document into a
// Configuration, the way bantling/micro's app package loads an
// application's TOML config: decode into a map[string]any first, then
// dispatch each recognized top-level key into its typed sub-config via
// mapstructure.
//
// SPDX-License-Identifier: Apache-2.0
package app

// Example TOML file:
//
// [engine_]
// data_dir = "/var/lib/kvrel"   # default is "."
// file_name = "kvrel.db"        # default is "kvrel.db"
// fsync = true                  # default is true
// max_result_rows = 100000      # default is 100000
//
// "engine_" is currently the only recognized top-level section: this
// engine's tables are declared at runtime by CREATE TABLE, not by config,
// so - unlike the teacher's config loader, which treats every other
// top-level key as a user-defined schema type - any key besides "engine_"
// is a load error.
