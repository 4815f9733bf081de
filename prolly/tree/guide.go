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

import "github.com/dolthub/prollytree/prolly"

// guideFunc picks an index into a bucket's entries when the cursor changes
// which bucket is on top of the stack (spec §4.D "Guides").
type guideFunc func(entries []prolly.Entry) int

// guideByLowestIndex always descends to the leftmost entry.
func guideByLowestIndex(entries []prolly.Entry) int {
	if len(entries) == 0 {
		return -1
	}
	return 0
}

// guideByTuple returns the index of the first entry whose tuple is >= t;
// if none qualifies, the last index (len-1). Used for targeted descent and
// for ascending back toward a specific tuple after a sideways step.
func guideByTuple(t prolly.Tuple) guideFunc {
	return func(entries []prolly.Entry) int {
		if len(entries) == 0 {
			return -1
		}
		lo, hi := 0, len(entries)
		for lo < hi {
			mid := (lo + hi) / 2
			if entries[mid].Tuple().Less(t) {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo == len(entries) {
			return len(entries) - 1
		}
		return lo
	}
}
