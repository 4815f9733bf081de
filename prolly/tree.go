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

import "github.com/dolthub/prollytree/hash"

// DefaultAverageBucketSize is the recommended default from spec §6.
const DefaultAverageBucketSize uint32 = 30

// Config carries the tree-wide parameters fixed at creation time (spec
// §6): expected entries per bucket, and the codec/hasher identifiers
// persisted in every bucket's prefix.
type Config struct {
	AverageBucketSize uint32
	CodecID           uint64
	HashID            uint64
}

// Prefix builds the root Prefix (level 0) for a tree created with c.
func (c Config) Prefix() Prefix {
	return Prefix{Average: c.AverageBucketSize, Level: 0, CodecID: c.CodecID, HashID: c.HashID}
}

// Tree is the single-field handle from spec §3: a reference to a root
// Bucket. A Tree owns exactly one root reference; Clone shares the root
// bucket value but not the mutable slot, so mutating one clone's root via
// SetRoot never affects another.
type Tree struct {
	root Bucket
}

// New wraps an existing root bucket as a Tree.
func New(root Bucket) *Tree {
	return &Tree{root: root}
}

// NewEmpty builds the canonical empty tree for the given config: a single
// empty leaf bucket at level 0 (spec §3, scenario 1).
func NewEmpty(cfg Config, codec Codec, hasher hash.Hasher) (*Tree, error) {
	root, err := NewBucket(cfg.Prefix(), nil, codec, hasher)
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

// Root returns the tree's current root bucket.
func (t *Tree) Root() Bucket { return t.root }

// SetRoot replaces t's root slot. Used by the mutation engine after a
// successful rebuild; never called on an error path (spec §7).
func (t *Tree) SetRoot(root Bucket) { t.root = root }

// Clone returns a new Tree sharing the current root bucket value but with
// an independent root slot: subsequent SetRoot calls on the clone do not
// affect t, and vice versa (spec §3 Lifecycles).
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root}
}

// HashOf returns the tree's root digest, a convenience over
// Root().Digest() mirroring the teacher's Node.HashOf().
func (t *Tree) HashOf() hash.Hash { return t.root.Digest() }

// RootLevel returns the level of the root bucket.
func (t *Tree) RootLevel() uint32 { return t.root.Level() }

// IsEmpty reports whether t is the canonical empty tree: a single empty
// bucket at level 0.
func (t *Tree) IsEmpty() bool {
	return t.root.Level() == 0 && t.root.Empty()
}
