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

import (
	"github.com/dolthub/prollytree/hash"
)

// Codec is the injected binary codec for a bucket's (prefix, entries) pair
// (spec §4.B, §6). Decode MUST fail with a MalformedBlock-class error if
// bytes do not round-trip exactly through Encode(Decode(bytes)).
type Codec interface {
	CodecID() uint64
	Encode(prefix Prefix, entries []Entry) ([]byte, error)
	Decode(data []byte) (Prefix, []Entry, error)
}

// CID is a bucket's content identifier: codec, hasher, and digest together
// (spec §3). Two buckets with equal CIDs have byte-identical serializations.
type CID struct {
	CodecID uint64
	HashID  uint64
	Digest  hash.Hash
}

// Bucket is an ordered, possibly empty sequence of entries at a fixed
// level, with an associated Prefix (spec §3). Bucket is a value type: once
// built its bytes and digest never change. Buckets are addressed by CID
// and referenced by other buckets only via that CID, never by pointer
// (spec §9).
type Bucket struct {
	prefix  Prefix
	entries []Entry
	bytes   []byte
	digest  hash.Hash
}

// NewBucket serializes entries under prefix with codec, hashes the result
// with hasher, and returns the resulting immutable Bucket. entries must
// already be in ascending tuple order (I1); NewBucket does not re-sort.
func NewBucket(prefix Prefix, entries []Entry, codec Codec, hasher hash.Hasher) (Bucket, error) {
	data, err := codec.Encode(prefix, entries)
	if err != nil {
		return Bucket{}, err
	}
	digest := hasher.Sum(data)
	return Bucket{
		prefix:  prefix,
		entries: entries,
		bytes:   data,
		digest:  digest,
	}, nil
}

// fromParts reconstructs a Bucket whose bytes and digest have already been
// computed (by loadBucket, which verifies the digest before trusting it).
func fromParts(prefix Prefix, entries []Entry, data []byte, digest hash.Hash) Bucket {
	return Bucket{prefix: prefix, entries: entries, bytes: data, digest: digest}
}

// NewVerifiedBucket is fromParts exported for tree.NodeStore.LoadBucket,
// which has already decoded, prefix-checked and digest-verified data
// before constructing the Bucket; re-running Encode would be redundant
// work on every cache-cold load.
func NewVerifiedBucket(prefix Prefix, entries []Entry, data []byte, digest hash.Hash) Bucket {
	return fromParts(prefix, entries, data, digest)
}

// Prefix returns the bucket's prefix.
func (b Bucket) Prefix() Prefix { return b.prefix }

// Entries returns the bucket's entries. The returned slice MUST NOT be
// mutated; Bucket is a value type and callers that need to build a new
// bucket must copy first.
func (b Bucket) Entries() []Entry { return b.entries }

// Level returns the bucket's level, a convenience over Prefix().Level.
func (b Bucket) Level() uint32 { return b.prefix.Level }

// Count returns the number of entries directly in this bucket (not the
// recursive leaf count below it).
func (b Bucket) Count() int { return len(b.entries) }

// Empty reports whether the bucket has zero entries.
func (b Bucket) Empty() bool { return len(b.entries) == 0 }

// Bytes returns the bucket's canonical serialized form.
func (b Bucket) Bytes() []byte { return b.bytes }

// Digest returns hash(Bytes()).
func (b Bucket) Digest() hash.Hash { return b.digest }

// Cid returns the bucket's content identifier.
func (b Bucket) Cid() CID {
	return CID{CodecID: b.prefix.CodecID, HashID: b.prefix.HashID, Digest: b.digest}
}

// Boundary returns the bucket's last entry, or false if the bucket is
// empty (spec §3: boundary(bucket)).
func (b Bucket) Boundary() (Entry, bool) {
	if len(b.entries) == 0 {
		return Entry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// ParentEntry returns the entry this bucket contributes one level up: the
// boundary's tuple paired with this bucket's digest as Message. Returns
// false for an empty bucket (spec §3: parent_entry(bucket)).
func (b Bucket) ParentEntry() (Entry, bool) {
	boundary, ok := b.Boundary()
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Timestamp: boundary.Timestamp,
		Hash:      boundary.Hash,
		Message:   b.digest[:],
	}, true
}

// IsBoundaryEntry reports whether e closes a bucket at this bucket's level
// under the (average) parameter — a convenience used by the chunker and by
// property tests validating P3.
func (b Bucket) IsBoundaryEntry(average uint32, e Entry) bool {
	return isBoundary(average, b.prefix.Level)(e)
}
