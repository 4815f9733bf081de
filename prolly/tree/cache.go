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
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dolthub/prollytree/hash"
	"github.com/dolthub/prollytree/prolly"
)

// nodeCache holds decoded, verified buckets keyed by digest so repeat
// descents (e.g. two cursors visiting a shared subtree) skip the
// fetch/decode/verify path. A capacity of 0 makes every operation a no-op,
// which NewNodeStore uses to disable caching outright.
type nodeCache struct {
	inner *lru.Cache[hash.Hash, prolly.Bucket]
}

func newNodeCache(capacity int) *nodeCache {
	if capacity <= 0 {
		return &nodeCache{}
	}
	c, err := lru.New[hash.Hash, prolly.Bucket](capacity)
	if err != nil {
		// Only returned by golang-lru for a non-positive size, which is
		// excluded above.
		panic(err)
	}
	return &nodeCache{inner: c}
}

func (c *nodeCache) get(digest hash.Hash) (prolly.Bucket, bool) {
	if c.inner == nil {
		return prolly.Bucket{}, false
	}
	return c.inner.Get(digest)
}

func (c *nodeCache) insert(digest hash.Hash, b prolly.Bucket) {
	if c.inner == nil {
		return
	}
	c.inner.Add(digest, b)
}

func (c *nodeCache) evict(digest hash.Hash) {
	if c.inner == nil {
		return
	}
	c.inner.Remove(digest)
}

func (c *nodeCache) purge() {
	if c.inner == nil {
		return
	}
	c.inner.Purge()
}
