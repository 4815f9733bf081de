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

package hash

import (
	"fmt"

	"github.com/zeebo/blake3"
	"github.com/zeebo/xxh3"
)

// HashID identifies which Hasher produced (and must verify) a bucket's
// digest. It is persisted in every bucket's Prefix (spec §3).
type HashID uint64

const (
	// Blake3HashID is the default, cryptographically strong hasher.
	Blake3HashID HashID = 1
	// XXH3HashID trades collision resistance for throughput; suitable for
	// test trees and non-adversarial local indexes.
	XXH3HashID HashID = 2
)

// Hasher computes a synchronous, fixed-length digest over bucket bytes
// (spec §6: "Hasher (injected)").
type Hasher interface {
	ID() HashID
	Sum(data []byte) Hash
}

type blake3Hasher struct{}

func (blake3Hasher) ID() HashID { return Blake3HashID }

func (blake3Hasher) Sum(data []byte) Hash {
	sum := blake3.Sum256(data)
	return Hash(sum)
}

type xxh3Hasher struct{}

func (xxh3Hasher) ID() HashID { return XXH3HashID }

func (xxh3Hasher) Sum(data []byte) Hash {
	// xxh3 natively produces a 128-bit digest; widen it to the shared
	// ByteLen by hashing twice over domain-separated input so every
	// Hasher in this package yields a uniformly-sized Hash.
	var out Hash
	hi := xxh3.Hash128(data)
	lo := xxh3.Hash(append(append([]byte(nil), data...), 0x01))
	b := hi.Bytes()
	copy(out[:16], b[:])
	for i := 0; i < 8; i++ {
		out[16+i] = byte(lo >> (8 * i))
	}
	// fill the remaining 8 bytes deterministically from a second pass so
	// the digest is not truncated padding.
	lo2 := xxh3.Hash(append(append([]byte(nil), data...), 0x02))
	for i := 0; i < 8; i++ {
		out[24+i] = byte(lo2 >> (8 * i))
	}
	return out
}

// Blake3 is the default Hasher.
var Blake3 Hasher = blake3Hasher{}

// XXH3 is the throughput-oriented Hasher.
var XXH3 Hasher = xxh3Hasher{}

// ByID resolves a HashID to its Hasher. Returns an error for unknown ids
// rather than falling back to a default algorithm.
func ByID(id HashID) (Hasher, error) {
	switch id {
	case Blake3HashID:
		return Blake3, nil
	case XXH3HashID:
		return XXH3, nil
	default:
		return nil, fmt.Errorf("hash: unknown hash id %d", id)
	}
}
