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
	"encoding/binary"
	"math"
)

// ErrShortHash is returned by validateEntry when an entry's Hash field is
// shorter than 4 bytes; isBoundary requires 4 bytes to derive its 32-bit
// mixing value (spec §4.A).
type errShortHash struct{}

func (errShortHash) Error() string { return "prolly: entry hash shorter than 4 bytes" }

// ErrShortHash is the sentinel validateEntry returns for too-short hashes;
// isBoundary treats such an entry as a non-boundary. The message codec
// rejects short hashes at decode time with its own error, which
// tree.NodeStore.LoadBucket wraps into ErrMalformedBlock.
var ErrShortHash error = errShortHash{}

// validateEntry checks the one structural precondition isBoundary relies
// on: a hash of at least 4 bytes.
func validateEntry(e Entry) error {
	if len(e.Hash) < 4 {
		return ErrShortHash
	}
	return nil
}

// isBoundary implements the fixed, wire-compatible boundary scheme from
// spec §4.A: mix the entry's hash (first 4 bytes, big-endian) with the
// level to produce a 32-bit value V, and declare a boundary iff
// V < (MaxUint32 / average). The scheme is deterministic, level-salted
// (XOR-ing in the level prevents a level-0 boundary from being one at
// level 1), and parameterized by average so that ~1/average entries
// qualify.
//
// This layout is fixed for wire compatibility (spec §4.A); do not change
// the mixing formula without bumping a tree-format version.
func isBoundary(average uint32, level uint32) func(Entry) bool {
	threshold := uint64(math.MaxUint32) / uint64(average)
	return func(e Entry) bool {
		if err := validateEntry(e); err != nil {
			// Callers that reach isBoundary should have already validated
			// the entry at decode time; treat an invalid entry here as
			// never-a-boundary rather than panicking mid-chunking.
			return false
		}
		v := binary.BigEndian.Uint32(e.Hash[:4])
		v ^= levelWord(level)
		return uint64(v) < threshold
	}
}

// IsBoundary exposes isBoundary for callers outside this package (the
// mutation engine's chunker and property tests) that need the exact
// predicate a given (average, level) pair uses.
func IsBoundary(average uint32, level uint32) func(Entry) bool {
	return isBoundary(average, level)
}

// levelWord folds a level into a 32-bit mixing word. Levels are salted by
// multiplying by a large odd constant and rotating, so adjacent levels
// produce unrelated words even for small level values.
func levelWord(level uint32) uint32 {
	const mult = 0x9E3779B1 // golden-ratio constant, odd
	w := level * mult
	return (w << 13) | (w >> 19)
}
