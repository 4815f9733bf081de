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

	"github.com/dolthub/prollytree/hash"
	"github.com/dolthub/prollytree/prolly"
)

// TreeCount returns the total number of level-0 entries reachable from
// root, mirroring the teacher's Node.TreeCount() convenience. It recurses
// through internal buckets via their child digests rather than walking a
// Cursor leaf-by-leaf, since only the total is wanted, not the entries
// themselves.
func TreeCount(ctx context.Context, ns *NodeStore, root prolly.Bucket) (int, error) {
	if root.Level() == 0 {
		return root.Count(), nil
	}

	childPrefix := root.Prefix().WithLevel(root.Level() - 1)
	total := 0
	for _, e := range root.Entries() {
		child, err := ns.LoadBucket(ctx, hash.New(e.Message), childPrefix)
		if err != nil {
			return 0, err
		}
		n, err := TreeCount(ctx, ns, child)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
