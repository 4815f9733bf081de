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
	"encoding/binary"

	"github.com/dolthub/prollytree/hash"
	"github.com/dolthub/prollytree/prolly"
)

// sequentialEntries builds n entries with ascending timestamps and
// deterministic pseudo-random hashes, suitable for building multi-level
// test trees with a small average bucket size.
func sequentialEntries(n int) []prolly.Entry {
	out := make([]prolly.Entry, n)
	for i := 0; i < n; i++ {
		h := hash.Blake3.Sum(binary.BigEndian.AppendUint64(nil, uint64(i)))
		out[i] = prolly.Entry{
			Timestamp: int64(i),
			Hash:      h.Bytes(),
			Message:   h.Bytes(),
		}
	}
	return out
}

// addsFor converts entries into level-0 Add updates, already tuple-sorted
// since sequentialEntries produces ascending timestamps.
func addsFor(entries []prolly.Entry) []Update {
	out := make([]Update, len(entries))
	for i, e := range entries {
		out[i] = Update{Level: 0, Tuple: e.Tuple(), Op: OpAdd, Entry: e}
	}
	return out
}

// rmsFor converts entries into level-0 Rm updates.
func rmsFor(entries []prolly.Entry) []Update {
	out := make([]Update, len(entries))
	for i, e := range entries {
		out[i] = Update{Level: 0, Tuple: e.Tuple(), Op: OpRm}
	}
	return out
}
