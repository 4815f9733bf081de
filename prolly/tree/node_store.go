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
	"context"

	"github.com/pkg/errors"

	"github.com/dolthub/prollytree/blockstore"
	"github.com/dolthub/prollytree/hash"
	"github.com/dolthub/prollytree/internal/logging"
	"github.com/dolthub/prollytree/prolly"
)

// NodeStore adapts the injected blockstore.Store (I/O-fallible and
// asynchronous, per spec §4.C) into loadBucket/writeBucket operations that
// verify and cache decoded buckets.
type NodeStore struct {
	store  blockstore.Store
	codec  prolly.Codec
	hasher hash.Hasher
	cache  *nodeCache
}

// NewNodeStore returns a NodeStore over store, encoding/decoding with
// codec and hashing with hasher. cacheEntries bounds the number of
// buckets held in the decoded-bucket cache; 0 disables caching.
func NewNodeStore(store blockstore.Store, codec prolly.Codec, hasher hash.Hasher, cacheEntries int) *NodeStore {
	return &NodeStore{store: store, codec: codec, hasher: hasher, cache: newNodeCache(cacheEntries)}
}

// Codec returns the NodeStore's codec, used by the chunker to build new
// buckets with the same wire format as the tree it is rebuilding.
func (ns *NodeStore) Codec() prolly.Codec { return ns.codec }

// Hasher returns the NodeStore's hasher.
func (ns *NodeStore) Hasher() hash.Hasher { return ns.hasher }

// WriteBucket persists b under its own CID. Writes are idempotent by
// content address (spec §5).
func (ns *NodeStore) WriteBucket(ctx context.Context, b prolly.Bucket) error {
	if err := ns.store.Put(ctx, b.Cid(), b.Bytes()); err != nil {
		return errors.Wrap(err, "tree: writing bucket")
	}
	ns.cache.insert(b.Digest(), b)
	return nil
}

// LoadBucket implements spec §4.C's loadBucket: fetch by CID, decode,
// verify the prefix (including level) and the digest, and return the
// bucket. A cache hit skips the fetch/decode/verify entirely — the bucket
// was verified once, on first load or on write.
func (ns *NodeStore) LoadBucket(ctx context.Context, digest hash.Hash, expected prolly.Prefix) (prolly.Bucket, error) {
	if cached, ok := ns.cache.get(digest); ok {
		if cached.Level() != expected.Level || !cached.Prefix().Equal(expected) {
			logging.Logger().Warn().
				Stringer("digest", digest).
				Uint32("cachedLevel", cached.Level()).
				Uint32("wantLevel", expected.Level).
				Msg("tree: stale cache entry, evicting and reloading")
			ns.cache.evict(digest)
		} else {
			return cached, nil
		}
	}

	cid := prolly.CID{CodecID: expected.CodecID, HashID: expected.HashID, Digest: digest}
	data, err := ns.store.Get(ctx, cid)
	if err != nil {
		if errors.Is(err, blockstore.ErrNotFound) {
			return prolly.Bucket{}, err
		}
		return prolly.Bucket{}, errors.Wrap(err, "tree: fetching bucket")
	}

	prefix, entries, err := ns.codec.Decode(data)
	if err != nil {
		logging.Logger().Error().Err(err).Stringer("digest", digest).Msg("tree: malformed block")
		return prolly.Bucket{}, errors.Wrap(ErrMalformedBlock, err.Error())
	}

	if prefix.Level != expected.Level {
		logging.Logger().Error().Stringer("digest", digest).
			Uint32("gotLevel", prefix.Level).Uint32("wantLevel", expected.Level).
			Msg("tree: level mismatch")
		return prolly.Bucket{}, errors.Wrapf(ErrLevelMismatch, "got %d want %d", prefix.Level, expected.Level)
	}
	if !prefix.Equal(expected) {
		logging.Logger().Error().Stringer("digest", digest).Msg("tree: prefix mismatch")
		return prolly.Bucket{}, errors.Wrapf(ErrPrefixMismatch, "got %+v want %+v", prefix, expected)
	}

	got := ns.hasher.Sum(data)
	if got != digest {
		logging.Logger().Error().Stringer("digest", digest).Stringer("computed", got).
			Msg("tree: digest mismatch")
		return prolly.Bucket{}, errors.Wrapf(ErrDigestMismatch, "got %s want %s", got, digest)
	}

	b := prolly.NewVerifiedBucket(prefix, entries, data, digest)

	ns.cache.insert(digest, b)
	return b, nil
}
