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

// Package prolly implements the data model of a probabilistic,
// content-addressed search tree: entries, buckets, and the tree handle
// itself. The stateful traversal (Cursor) and bottom-up rebuild (Chunker)
// live in the prolly/tree subpackage.
package prolly

import "bytes"

// Tuple is the ordered key of an Entry: (timestamp, hash). It is the unit
// compareTuples orders over (spec §3).
type Tuple struct {
	Timestamp int64
	Hash      []byte
}

// Compare implements compareTuples: ascending by Timestamp, ties broken by
// lexicographic comparison of Hash. A total order.
func (t Tuple) Compare(o Tuple) int {
	if t.Timestamp != o.Timestamp {
		if t.Timestamp < o.Timestamp {
			return -1
		}
		return 1
	}
	return bytes.Compare(t.Hash, o.Hash)
}

// Less reports whether t sorts strictly before o.
func (t Tuple) Less(o Tuple) bool { return t.Compare(o) < 0 }

// Equal reports whether t and o denote the same tuple.
func (t Tuple) Equal(o Tuple) bool { return t.Compare(o) == 0 }

// Entry is the leaf payload (spec §3): a triple of (timestamp, hash,
// message). At internal levels (level > 0) Message MUST equal the digest
// of the child bucket this entry links to.
type Entry struct {
	Timestamp int64
	Hash      []byte
	Message   []byte
}

// Tuple extracts the ordering key of e.
func (e Entry) Tuple() Tuple {
	return Tuple{Timestamp: e.Timestamp, Hash: e.Hash}
}

// compareEntries orders two entries by their tuples. Exported as a
// function (rather than only the Tuple method) to match the spec's
// vocabulary directly and to give callers a drop-in comparator for
// sort.Slice.
func compareEntries(a, b Entry) int {
	return a.Tuple().Compare(b.Tuple())
}

// CompareEntries is the exported form of compareEntries, used by the
// mutation engine and tests to order/merge entry streams.
func CompareEntries(a, b Entry) int { return compareEntries(a, b) }

// Clone returns a deep copy of e so callers may safely mutate hash/message
// byte slices in place elsewhere without aliasing tree state.
func (e Entry) Clone() Entry {
	out := Entry{Timestamp: e.Timestamp}
	if e.Hash != nil {
		out.Hash = append([]byte(nil), e.Hash...)
	}
	if e.Message != nil {
		out.Message = append([]byte(nil), e.Message...)
	}
	return out
}
