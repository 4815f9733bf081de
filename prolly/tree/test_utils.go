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

package tree

import (
	"github.com/dolthub/prollytree/blockstore"
	"github.com/dolthub/prollytree/hash"
	"github.com/dolthub/prollytree/message"
	"github.com/dolthub/prollytree/prolly"
)

// NewTestNodeStore returns a NodeStore over a fresh in-memory blockstore,
// the default message.Serializer and hash.Blake3 hasher, and a decoded-
// bucket cache of 64 entries. Exported (not _test.go) so every test package under this
// module that needs a ready NodeStore can share one construction path,
// mirroring the teacher's own test_utils.go convenience constructors.
func NewTestNodeStore() *NodeStore {
	return NewNodeStore(blockstore.NewMemoryStore(), message.Serializer{}, hash.Blake3, 64)
}

// NewTestConfig returns a Config with a small average bucket size, chosen
// so unit tests can build multi-level trees without inserting thousands of
// entries.
func NewTestConfig() prolly.Config {
	return prolly.Config{AverageBucketSize: 8, CodecID: message.CodecID, HashID: uint64(hash.Blake3HashID)}
}
