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

package blockstore

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/dolthub/prollytree/prolly"
)

// shardCount is chosen as a small power of two; MemoryStore is meant for
// tests and modestly-sized trees, not a production KV cache, so this only
// needs to keep a single lock from becoming a bottleneck under concurrent
// mutation sessions.
const shardCount = 16

// MemoryStore is an in-process Store backed by sharded maps, keyed by
// CID.Digest. Puts are idempotent by content address (spec §5), so two
// concurrent writers racing to Put the same CID never corrupt state.
type MemoryStore struct {
	shards [shardCount]shard
}

type shard struct {
	mu   sync.RWMutex
	data map[[32]byte][]byte
}

// NewMemoryStore returns a ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{}
	for i := range ms.shards {
		ms.shards[i].data = make(map[[32]byte][]byte)
	}
	return ms
}

func (m *MemoryStore) shardFor(cid prolly.CID) *shard {
	h := xxhash.Sum64(cid.Digest[:])
	return &m.shards[h%shardCount]
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, cid prolly.CID) ([]byte, error) {
	s := m.shardFor(cid)
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[cid.Digest]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy: Store implementations must not let callers mutate
	// shared storage through the returned slice.
	return append([]byte(nil), data...), nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, cid prolly.CID, data []byte) error {
	s := m.shardFor(cid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[cid.Digest]; exists {
		// content-addressed: identical CID implies identical bytes already
		// stored (spec §5); no-op rather than re-copy.
		return nil
	}
	s.data[cid.Digest] = append([]byte(nil), data...)
	return nil
}

// Len returns the total number of blocks stored, for test assertions.
func (m *MemoryStore) Len() int {
	n := 0
	for i := range m.shards {
		m.shards[i].mu.RLock()
		n += len(m.shards[i].data)
		m.shards[i].mu.RUnlock()
	}
	return n
}

// Tamper overwrites the bytes stored for cid, for corruption-detection
// tests (spec §8 scenario 6).
func (m *MemoryStore) Tamper(cid prolly.CID, data []byte) {
	s := m.shardFor(cid)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cid.Digest] = append([]byte(nil), data...)
}

var _ Store = (*MemoryStore)(nil)
