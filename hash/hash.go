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

// Package hash defines the fixed-length content digest used to address
// buckets, and the Hasher interface the core consumes to compute it.
package hash

import (
	"encoding/base32"
	"fmt"
	"sort"
)

// ByteLen is the length in bytes of a digest produced by any Hasher
// registered in this package. All hash identifiers share one width so that
// a Bucket's serialized bytes have a predictable digest size regardless of
// which HashID its prefix names.
const ByteLen = 32

// StringLen is the length of the base32 string encoding of a Hash.
const StringLen = 52

var encoding = base32.NewEncoding("0123456789abcdefghijklmnopqrstuv").WithPadding(base32.NoPadding)

// Hash is a content digest: the output of a Hasher over a bucket's
// serialized bytes.
type Hash [ByteLen]byte

// New constructs a Hash from a byte slice. Panics if data is not exactly
// ByteLen bytes, mirroring the teacher's fixed-width digest invariant.
func New(data []byte) Hash {
	if len(data) != ByteLen {
		panic(fmt.Sprintf("hash: invalid digest length %d", len(data)))
	}
	var h Hash
	copy(h[:], data)
	return h
}

// Bytes returns h as a byte slice, for callers (like entry.Message) that
// need a []byte rather than a fixed-size array.
func (h Hash) Bytes() []byte {
	out := make([]byte, ByteLen)
	copy(out, h[:])
	return out
}

// IsEmpty reports whether h is the zero digest.
func (h Hash) IsEmpty() bool {
	return h == Hash{}
}

// String returns the base32 encoding of h.
func (h Hash) String() string {
	return encoding.EncodeToString(h[:])
}

// Parse decodes s into a Hash. Panics on malformed input, matching the
// teacher's Parse semantics (used only with trusted/internal strings).
func Parse(s string) Hash {
	if len(s) != StringLen {
		panic(fmt.Sprintf("hash: invalid string length %d", len(s)))
	}
	data, err := encoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return New(data)
}

// MaybeParse is the non-panicking counterpart of Parse.
func MaybeParse(s string) (Hash, bool) {
	if len(s) != StringLen {
		return Hash{}, false
	}
	data, err := encoding.DecodeString(s)
	if err != nil {
		return Hash{}, false
	}
	return New(data), true
}

// Less imposes an arbitrary but total byte-wise order over hashes, used to
// make HashSlice sortable for deterministic iteration in tests.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// HashSlice is a sortable slice of Hash.
type HashSlice []Hash

func (s HashSlice) Len() int           { return len(s) }
func (s HashSlice) Less(i, j int) bool { return s[i].Less(s[j]) }
func (s HashSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

var _ sort.Interface = HashSlice{}
