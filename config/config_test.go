// Copyright 2026 The Prollytree Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/prollytree/config"
)

func TestLoadAppliesFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prollytree.toml")
	contents := `
average_bucket_size = 64
hash_id = 2
codec_id = 1
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	d, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, uint32(64), d.AverageBucketSize)
	require.Equal(t, uint64(2), d.HashID)
	require.Equal(t, uint64(1), d.CodecID)
}

func TestLoadFillsDefaultAverageBucketSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prollytree.toml")
	require.NoError(t, os.WriteFile(path, []byte(`hash_id = 1`), 0600))

	d, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, uint32(config.DefaultAverageBucketSize), d.AverageBucketSize)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}
