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

package prolly

// Prefix identifies the tree-wide parameters shared by every bucket, plus
// the one field (Level) that varies bucket-to-bucket (spec §3).
type Prefix struct {
	Average uint32
	Level   uint32
	CodecID uint64
	HashID  uint64
}

// WithLevel returns a copy of p with Level replaced, used when descending
// or ascending one level in the cursor and chunker.
func (p Prefix) WithLevel(level uint32) Prefix {
	p.Level = level
	return p
}

// Equal reports whether p and o name the same tree parameters at the same
// level; loadBucket uses this for the PrefixMismatch/LevelMismatch check
// (spec §4.C).
func (p Prefix) Equal(o Prefix) bool {
	return p == o
}
