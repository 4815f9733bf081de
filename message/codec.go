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

// Package message implements the canonical bucket codec (spec §4.B, §6):
// encodeBucket/decodeBucket built directly on the flatbuffers Builder
// primitives, the way the teacher's own message package hand-builds
// prolly map messages without a generated .fbs schema (hard-coded vtable
// slots, flat byte blobs with an offsets vector instead of a vector of
// vectors).
package message

import (
	"encoding/binary"

	flatbuffers "github.com/dolthub/flatbuffers/v23/go"
	"github.com/pkg/errors"

	"github.com/dolthub/prollytree/prolly"
)

// CodecID identifies this wire format; persisted in every bucket's prefix.
const CodecID uint64 = 1

// vtable slot indices, fixed for wire compatibility.
const (
	slotAverage        = 0
	slotLevel          = 1
	slotCodecID        = 2
	slotHashID         = 3
	slotCount          = 4
	slotTimestamps     = 5
	slotHashOffsets    = 6
	slotHashBlob       = 7
	slotMessageOffsets = 8
	slotMessageBlob    = 9
	numSlots           = 10
)

// Serializer implements prolly.Codec.
type Serializer struct{}

var _ prolly.Codec = Serializer{}

// CodecID implements prolly.Codec.
func (Serializer) CodecID() uint64 { return CodecID }

// Encode implements prolly.Codec. The encoding is a deterministic function
// of (prefix, entries): flatbuffers vtables elide only strictly-default
// (zero) fields, and every vector is built by iterating entries in their
// given (already tuple-ordered) order, so encode(decode(encode(p, e))) ==
// encode(p, e) for any (p, e) — the canonicality guarantee spec §4.B
// requires.
func (s Serializer) Encode(prefix prolly.Prefix, entries []prolly.Entry) ([]byte, error) {
	for _, e := range entries {
		if len(e.Hash) < 4 {
			return nil, errors.New("message: entry hash shorter than 4 bytes")
		}
	}

	b := flatbuffers.NewBuilder(256 + 64*len(entries))

	hashBlob, hashOffs := concatWithOffsets(entries, func(e prolly.Entry) []byte { return e.Hash })
	msgBlob, msgOffs := concatWithOffsets(entries, func(e prolly.Entry) []byte { return e.Message })

	hashBlobOff := b.CreateByteVector(hashBlob)
	hashOffsOff := createUint32Vector(b, hashOffs)
	msgBlobOff := b.CreateByteVector(msgBlob)
	msgOffsOff := createUint32Vector(b, msgOffs)
	tsOff := createInt64Vector(b, timestamps(entries))

	b.StartObject(numSlots)
	b.PrependUint32Slot(slotAverage, prefix.Average, 0)
	b.PrependUint32Slot(slotLevel, prefix.Level, 0)
	b.PrependUint64Slot(slotCodecID, prefix.CodecID, 0)
	b.PrependUint64Slot(slotHashID, prefix.HashID, 0)
	b.PrependUint32Slot(slotCount, uint32(len(entries)), 0)
	b.PrependUOffsetTSlot(slotTimestamps, tsOff, 0)
	b.PrependUOffsetTSlot(slotHashOffsets, hashOffsOff, 0)
	b.PrependUOffsetTSlot(slotHashBlob, hashBlobOff, 0)
	b.PrependUOffsetTSlot(slotMessageOffsets, msgOffsOff, 0)
	b.PrependUOffsetTSlot(slotMessageBlob, msgBlobOff, 0)
	root := b.EndObject()

	b.Finish(root)
	out := b.FinishedBytes()

	// Copy out of the builder's scratch buffer: FinishedBytes aliases the
	// builder's internal slice, which the caller must not retain past
	// builder reuse.
	return append([]byte(nil), out...), nil
}

// Decode implements prolly.Codec. It MUST fail with a canonicality error
// whenever bytes were not produced by Encode for some (prefix, entries) —
// Decode re-derives (prefix, entries), re-encodes them itself and
// byte-compares the result with data.
func (s Serializer) Decode(data []byte) (prolly.Prefix, []prolly.Entry, error) {
	if len(data) < 8 {
		return prolly.Prefix{}, nil, errors.New("message: truncated buffer")
	}
	root := flatbuffers.GetUOffsetT(data)
	t := &flatbuffers.Table{Bytes: data, Pos: root}

	prefix := prolly.Prefix{
		Average: getUint32Slot(t, slotAverage, 0),
		Level:   getUint32Slot(t, slotLevel, 0),
		CodecID: getUint64Slot(t, slotCodecID, 0),
		HashID:  getUint64Slot(t, slotHashID, 0),
	}

	count := int(getUint32Slot(t, slotCount, 0))

	tsVec, err := readInt64Vector(t, slotTimestamps, count)
	if err != nil {
		return prolly.Prefix{}, nil, errors.Wrap(err, "message: timestamps")
	}
	hashBlob, hashOffs, err := readBlobAndOffsets(t, slotHashBlob, slotHashOffsets, count)
	if err != nil {
		return prolly.Prefix{}, nil, errors.Wrap(err, "message: hashes")
	}
	msgBlob, msgOffs, err := readBlobAndOffsets(t, slotMessageBlob, slotMessageOffsets, count)
	if err != nil {
		return prolly.Prefix{}, nil, errors.Wrap(err, "message: messages")
	}

	entries := make([]prolly.Entry, count)
	prevHash, prevMsg := uint32(0), uint32(0)
	for i := 0; i < count; i++ {
		hEnd := hashOffs[i]
		mEnd := msgOffs[i]
		entries[i] = prolly.Entry{
			Timestamp: tsVec[i],
			Hash:      append([]byte(nil), hashBlob[prevHash:hEnd]...),
			Message:   append([]byte(nil), msgBlob[prevMsg:mEnd]...),
		}
		if len(entries[i].Hash) < 4 {
			return prolly.Prefix{}, nil, errors.New("message: decoded entry hash shorter than 4 bytes")
		}
		prevHash, prevMsg = hEnd, mEnd
	}

	// Canonicality check (spec §4.B): re-encode and compare.
	reencoded, err := s.Encode(prefix, entries)
	if err != nil {
		return prolly.Prefix{}, nil, errors.Wrap(err, "message: re-encode during canonicality check")
	}
	if !bytesEqual(reencoded, data) {
		return prolly.Prefix{}, nil, errors.New("message: non-canonical encoding")
	}

	return prefix, entries, nil
}

func vOffset(slot int) flatbuffers.VOffsetT {
	return flatbuffers.VOffsetT((flatbuffers.VtableMetadataFields + slot) * flatbuffers.SizeVOffsetT)
}

func getUint32Slot(t *flatbuffers.Table, slot int, def uint32) uint32 {
	o := t.Offset(vOffset(slot))
	if o == 0 {
		return def
	}
	return t.GetUint32(t.Pos + flatbuffers.UOffsetT(o))
}

func getUint64Slot(t *flatbuffers.Table, slot int, def uint64) uint64 {
	o := t.Offset(vOffset(slot))
	if o == 0 {
		return def
	}
	return t.GetUint64(t.Pos + flatbuffers.UOffsetT(o))
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func timestamps(entries []prolly.Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Timestamp
	}
	return out
}

// concatWithOffsets flattens each entry's selected byte slice into one
// blob and records the cumulative end offset of each item, avoiding a
// vector-of-vectors in the wire format.
func concatWithOffsets(entries []prolly.Entry, sel func(prolly.Entry) []byte) (blob []byte, offsets []uint32) {
	offsets = make([]uint32, len(entries))
	var total uint32
	for i, e := range entries {
		b := sel(e)
		blob = append(blob, b...)
		total += uint32(len(b))
		offsets[i] = total
	}
	return blob, offsets
}

func createUint32Vector(b *flatbuffers.Builder, vals []uint32) flatbuffers.UOffsetT {
	b.StartVector(4, len(vals), 4)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependUint32(vals[i])
	}
	return b.EndVector(len(vals))
}

func createInt64Vector(b *flatbuffers.Builder, vals []int64) flatbuffers.UOffsetT {
	b.StartVector(8, len(vals), 8)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependInt64(vals[i])
	}
	return b.EndVector(len(vals))
}

func readInt64Vector(t *flatbuffers.Table, slot int, count int) ([]int64, error) {
	o := t.Offset(vOffset(slot))
	if o == 0 {
		if count == 0 {
			return nil, nil
		}
		return nil, errors.New("missing vector")
	}
	n := t.VectorLen(o)
	if n != count {
		return nil, errors.Errorf("vector length %d != count %d", n, count)
	}
	vec := t.Vector(o)
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = int64(binary.LittleEndian.Uint64(t.Bytes[vec+flatbuffers.UOffsetT(i*8):]))
	}
	return out, nil
}

func readBlobAndOffsets(t *flatbuffers.Table, blobSlot, offsetsSlot int, count int) (blob []byte, offsets []uint32, err error) {
	if blobOff := t.Offset(vOffset(blobSlot)); blobOff != 0 {
		n := t.VectorLen(blobOff)
		vec := t.Vector(blobOff)
		blob = t.Bytes[vec : vec+flatbuffers.UOffsetT(n)]
	}

	offsOff := t.Offset(vOffset(offsetsSlot))
	if offsOff == 0 {
		if count == 0 {
			return blob, nil, nil
		}
		return nil, nil, errors.New("missing offsets vector")
	}
	n := t.VectorLen(offsOff)
	if n != count {
		return nil, nil, errors.Errorf("offsets length %d != count %d", n, count)
	}
	vec := t.Vector(offsOff)
	offsets = make([]uint32, n)
	for i := 0; i < n; i++ {
		offsets[i] = binary.LittleEndian.Uint32(t.Bytes[vec+flatbuffers.UOffsetT(i*4):])
	}
	return blob, offsets, nil
}
