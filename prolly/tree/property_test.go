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
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/prollytree/hash"
	"github.com/dolthub/prollytree/prolly"
)

func freshEmpty(t *testing.T, ns *NodeStore) prolly.Bucket {
	t.Helper()
	cfg := NewTestConfig()
	b, err := prolly.NewBucket(cfg.Prefix(), nil, ns.Codec(), ns.Hasher())
	require.NoError(t, err)
	return b
}

// P1: building a tree from any permutation of the same entry set produces
// the same root digest.
func TestPropertyP1DeterminismUnderShuffle(t *testing.T) {
	entries := sequentialEntries(72)

	f := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		shuffled := append([]prolly.Entry(nil), entries...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		ns := NewTestNodeStore()
		empty := freshEmpty(t, ns)
		ch := NewChunker(ns)

		root := empty
		for _, e := range shuffled {
			var err error
			root, _, err = ch.Apply(context.Background(), root, []Update{{Level: 0, Tuple: e.Tuple(), Op: OpAdd, Entry: e}})
			if err != nil {
				return false
			}
		}

		baseline := NewTestNodeStore()
		be := freshEmpty(t, baseline)
		bch := NewChunker(baseline)
		got, _, err := bch.Apply(context.Background(), be, addsFor(entries))
		if err != nil {
			return false
		}
		return got.Digest() == root.Digest()
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 8}))
}

// P2: insert then remove all tuples returns the canonical empty tree.
func TestPropertyP2InsertRemoveAllIsEmpty(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64} {
		entries := sequentialEntries(n)
		ns := NewTestNodeStore()
		empty := freshEmpty(t, ns)
		ch := NewChunker(ns)

		root, _, err := ch.Apply(context.Background(), empty, addsFor(entries))
		require.NoError(t, err)

		root, _, err = ch.Apply(context.Background(), root, rmsFor(entries))
		require.NoError(t, err)

		require.Equal(t, empty.Digest(), root.Digest())
	}
}

// P3: every non-head bucket's final entry is a boundary, and no earlier
// entry in that bucket is.
func TestPropertyP3BoundaryRule(t *testing.T) {
	ns, root, _ := buildTestTree(t, 200)
	average := root.Prefix().Average

	var walk func(b prolly.Bucket, isHead bool) error
	walk = func(b prolly.Bucket, isHead bool) error {
		entries := b.Entries()
		if len(entries) == 0 {
			return nil
		}
		last := len(entries) - 1
		if !isHead {
			require.True(t, b.IsBoundaryEntry(average, entries[last]), "final entry of non-head bucket must be a boundary")
		}
		for i := 0; i < last; i++ {
			require.False(t, b.IsBoundaryEntry(average, entries[i]), "no entry before the final one may be a boundary")
		}
		if b.Level() == 0 {
			return nil
		}
		for i, e := range entries {
			child, err := ns.LoadBucket(context.Background(), hash.New(e.Message), b.Prefix().WithLevel(b.Level()-1))
			require.NoError(t, err)
			childIsHead := isHead && i == last
			require.NoError(t, walk(child, childIsHead))
		}
		return nil
	}
	require.NoError(t, walk(root, true))
}

// P4: every internal entry's message is the digest of a child whose
// entries all sort within the half-open interval bounded by the
// predecessor and current linking tuples.
func TestPropertyP4Linkage(t *testing.T) {
	ns, root, _ := buildTestTree(t, 150)
	if root.Level() == 0 {
		t.Skip("tree too small to have an internal level")
	}

	entries := root.Entries()
	var prevTuple *prolly.Tuple
	for _, e := range entries {
		child, err := ns.LoadBucket(context.Background(), hash.New(e.Message), root.Prefix().WithLevel(root.Level()-1))
		require.NoError(t, err)
		for _, ce := range child.Entries() {
			if prevTuple != nil {
				require.True(t, prevTuple.Less(ce.Tuple()))
			}
			require.False(t, e.Tuple().Less(ce.Tuple()))
		}
		tupleCopy := e.Tuple()
		prevTuple = &tupleCopy
	}
}

// P5: diff(a, b) and diff(b, a) are pairwise From/To swaps of each other,
// in the same order.
func TestPropertyP5DiffSymmetry(t *testing.T) {
	ns := NewTestNodeStore()
	empty := freshEmpty(t, ns)
	ch := NewChunker(ns)

	entries := sequentialEntries(48)
	rootA, _, err := ch.Apply(context.Background(), empty, addsFor(entries[:24]))
	require.NoError(t, err)
	rootB, _, err := ch.Apply(context.Background(), rootA, addsFor(entries[24:]))
	require.NoError(t, err)

	ab, err := DiffRoots(context.Background(), ns, rootA, rootB)
	require.NoError(t, err)
	ba, err := DiffRoots(context.Background(), ns, rootB, rootA)
	require.NoError(t, err)

	require.Len(t, ab.Nodes, len(ba.Nodes))
	for i := range ab.Nodes {
		require.Equal(t, ab.Nodes[i].From, ba.Nodes[i].To)
		require.Equal(t, ab.Nodes[i].To, ba.Nodes[i].From)
	}
}

// P6: applying diff(a, b)'s adds/removes to a reproduces b's root digest.
func TestPropertyP6DiffMatchesMutation(t *testing.T) {
	ns := NewTestNodeStore()
	empty := freshEmpty(t, ns)
	ch := NewChunker(ns)

	entries := sequentialEntries(64)
	rootA, _, err := ch.Apply(context.Background(), empty, addsFor(entries[:32]))
	require.NoError(t, err)
	rootB, _, err := ch.Apply(context.Background(), empty, addsFor(entries[16:48]))
	require.NoError(t, err)

	diff, err := DiffRoots(context.Background(), ns, rootA, rootB)
	require.NoError(t, err)

	var updates []Update
	for _, d := range diff.Nodes {
		switch {
		case d.From == nil && d.To != nil:
			updates = append(updates, Update{Level: 0, Tuple: d.To.Tuple(), Op: OpAdd, Entry: *d.To})
		case d.From != nil && d.To == nil:
			updates = append(updates, Update{Level: 0, Tuple: d.From.Tuple(), Op: OpRm})
		case d.From != nil && d.To != nil:
			updates = append(updates, Update{Level: 0, Tuple: d.To.Tuple(), Op: OpAdd, Entry: *d.To})
		}
	}
	sortUpdates(updates)

	rebuilt, _, err := ch.Apply(context.Background(), rootA, updates)
	require.NoError(t, err)
	require.Equal(t, rootB.Digest(), rebuilt.Digest())
}

// P7: next() never returns a tuple <= the previous one; jumpTo(t) lands on
// an entry with tuple >= t unless done.
func TestPropertyP7CursorMonotonicity(t *testing.T) {
	ns, root, entries := buildTestTree(t, 90)

	cur, err := NewCursorAtStart(context.Background(), ns, root)
	require.NoError(t, err)

	var prev *prolly.Tuple
	for !cur.Done() {
		e, err := cur.Current()
		require.NoError(t, err)
		if prev != nil {
			require.True(t, prev.Less(e.Tuple()))
		}
		tupleCopy := e.Tuple()
		prev = &tupleCopy
		require.NoError(t, cur.Next(context.Background()))
	}

	mid := entries[len(entries)/2].Tuple()
	jc, err := NewCursorAtTuple(context.Background(), ns, root, mid, 0)
	require.NoError(t, err)
	if !jc.Done() {
		e, err := jc.Current()
		require.NoError(t, err)
		require.False(t, e.Tuple().Less(mid))
	}
}

// P8: equal-content trees have equal root digests; a one-entry change
// changes the digest.
func TestPropertyP8ContentAddressing(t *testing.T) {
	entries := sequentialEntries(30)

	ns1 := NewTestNodeStore()
	ch1 := NewChunker(ns1)
	root1, _, err := ch1.Apply(context.Background(), freshEmpty(t, ns1), addsFor(entries))
	require.NoError(t, err)

	ns2 := NewTestNodeStore()
	ch2 := NewChunker(ns2)
	root2, _, err := ch2.Apply(context.Background(), freshEmpty(t, ns2), addsFor(entries))
	require.NoError(t, err)

	require.Equal(t, root1.Digest(), root2.Digest())

	mutated := append([]prolly.Entry(nil), entries...)
	mutated[0].Message = append([]byte(nil), mutated[0].Message...)
	mutated[0].Message[0] ^= 0xFF

	ns3 := NewTestNodeStore()
	ch3 := NewChunker(ns3)
	root3, _, err := ch3.Apply(context.Background(), freshEmpty(t, ns3), addsFor(mutated))
	require.NoError(t, err)

	require.NotEqual(t, root1.Digest(), root3.Digest())
}
