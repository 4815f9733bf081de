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

// Package config loads host-level defaults for tree creation from a TOML
// file. The core itself never reads files; it only ever consumes the
// parsed prolly.Config value a caller builds (by hand, or via this
// package).
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Defaults mirrors the fields of prolly.Config in a TOML-friendly shape so
// host binaries can ship a prollytree.toml instead of hard-coding values.
type Defaults struct {
	AverageBucketSize uint32 `toml:"average_bucket_size"`
	HashID            uint64 `toml:"hash_id"`
	CodecID           uint64 `toml:"codec_id"`
}

// DefaultAverageBucketSize matches spec §6's recommended default.
const DefaultAverageBucketSize = 30

// Load parses a TOML file at path into Defaults, filling in the package
// defaults for any field the file omits.
func Load(path string) (Defaults, error) {
	d := Defaults{AverageBucketSize: DefaultAverageBucketSize}
	if _, err := toml.DecodeFile(path, &d); err != nil {
		return Defaults{}, errors.Wrapf(err, "config: decoding %s", path)
	}
	if d.AverageBucketSize == 0 {
		d.AverageBucketSize = DefaultAverageBucketSize
	}
	return d, nil
}
