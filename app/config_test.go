package app

// SPDX-License-Identifier: Apache-2.0

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	config := Load(strings.NewReader(""))
	assert.Equal(t, defaultConfiguration, config)
}

func TestLoad_EngineSection(t *testing.T) {
	doc := `
[engine_]
data_dir = "/var/lib/kvrel"
file_name = "main.db"
fsync = false
max_result_rows = 500
`
	config := Load(strings.NewReader(doc))
	assert.Equal(t, Storage{
		DataDir:       "/var/lib/kvrel",
		FileName:      "main.db",
		Fsync:         false,
		MaxResultRows: 500,
	}, config.Storage)
}

func TestLoad_PartialEngineSectionKeepsOtherDefaults(t *testing.T) {
	doc := `
[engine_]
data_dir = "/data"
`
	config := Load(strings.NewReader(doc))
	assert.Equal(t, "/data", config.Storage.DataDir)
	assert.Equal(t, defaultConfiguration.Storage.FileName, config.Storage.FileName)
	assert.Equal(t, defaultConfiguration.Storage.Fsync, config.Storage.Fsync)
}

func TestLoad_UnrecognizedTopLevelKeyPanics(t *testing.T) {
	doc := `
[tables_]
name = "whatever"
`
	assert.Panics(t, func() { Load(strings.NewReader(doc)) })
}

func TestLoad_MalformedDocumentPanics(t *testing.T) {
	assert.Panics(t, func() { Load(strings.NewReader("not = valid = toml")) })
}
