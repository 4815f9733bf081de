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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/prollytree/prolly"
)

func TestChunkerApplyBuildsEmptyRootForNoUpdates(t *testing.T) {
	ns := NewTestNodeStore()
	cfg := NewTestConfig()
	empty, err := prolly.NewBucket(cfg.Prefix(), nil, ns.Codec(), ns.Hasher())
	require.NoError(t, err)

	ch := NewChunker(ns)
	root, diff, err := ch.Apply(context.Background(), empty, nil)
	require.NoError(t, err)
	require.True(t, root.Empty())
	require.Empty(t, diff.Nodes)
}

func TestChunkerApplyInsertsIntoEmptyTree(t *testing.T) {
	ns := NewTestNodeStore()
	cfg := NewTestConfig()
	empty, err := prolly.NewBucket(cfg.Prefix(), nil, ns.Codec(), ns.Hasher())
	require.NoError(t, err)

	entries := sequentialEntries(40)
	ch := NewChunker(ns)
	root, diff, err := ch.Apply(context.Background(), empty, addsFor(entries))
	require.NoError(t, err)
	require.False(t, root.Empty())
	require.Len(t, diff.Nodes, len(entries))
	for _, nd := range diff.Nodes {
		require.Nil(t, nd.From)
		require.NotNil(t, nd.To)
	}

	// every inserted entry is reachable from a cursor walk over the result
	cur, err := NewCursorAtStart(context.Background(), ns, root)
	require.NoError(t, err)
	count := 0
	for !cur.Done() {
		_, err := cur.Current()
		require.NoError(t, err)
		count++
		require.NoError(t, cur.Next(context.Background()))
	}
	require.Equal(t, len(entries), count)
}

func TestChunkerApplyRemoveAllRoundTrips(t *testing.T) {
	ns := NewTestNodeStore()
	cfg := NewTestConfig()
	empty, err := prolly.NewBucket(cfg.Prefix(), nil, ns.Codec(), ns.Hasher())
	require.NoError(t, err)

	entries := sequentialEntries(64)
	ch := NewChunker(ns)
	root, _, err := ch.Apply(context.Background(), empty, addsFor(entries))
	require.NoError(t, err)

	root, diff, err := ch.Apply(context.Background(), root, rmsFor(entries))
	require.NoError(t, err)
	require.True(t, root.Empty())
	require.Equal(t, uint32(0), root.Level())
	require.Len(t, diff.Nodes, len(entries))
	for _, nd := range diff.Nodes {
		require.NotNil(t, nd.From)
		require.Nil(t, nd.To)
	}
	require.Equal(t, empty.Digest(), root.Digest())
}

func TestChunkerApplyNoOpUpdatesLeaveTreeAndDiffUntouched(t *testing.T) {
	ns := NewTestNodeStore()
	cfg := NewTestConfig()
	empty, err := prolly.NewBucket(cfg.Prefix(), nil, ns.Codec(), ns.Hasher())
	require.NoError(t, err)

	entries := sequentialEntries(96)
	ch := NewChunker(ns)
	root, _, err := ch.Apply(context.Background(), empty, addsFor(entries))
	require.NoError(t, err)

	// re-Add an already-present entry with byte-identical content, and Rm a
	// tuple that was never present: both are no-ops per the reconciliation
	// table, and must not cascade any bucket rewrite up the tree.
	absent := sequentialEntries(97)[96]
	noOps := []Update{
		{Level: 0, Tuple: entries[40].Tuple(), Op: OpAdd, Entry: entries[40]},
		{Level: 0, Tuple: absent.Tuple(), Op: OpRm},
	}

	newRoot, diff, err := ch.Apply(context.Background(), root, noOps)
	require.NoError(t, err)
	require.Equal(t, root.Digest(), newRoot.Digest())
	require.Empty(t, diff.Nodes)
	require.Empty(t, diff.Buckets)
}

func TestChunkerApplyRejectsUnsortedUpdates(t *testing.T) {
	ns := NewTestNodeStore()
	cfg := NewTestConfig()
	empty, err := prolly.NewBucket(cfg.Prefix(), nil, ns.Codec(), ns.Hasher())
	require.NoError(t, err)

	entries := sequentialEntries(4)
	updates := addsFor(entries)
	updates[0], updates[1] = updates[1], updates[0]

	ch := NewChunker(ns)
	_, _, err = ch.Apply(context.Background(), empty, updates)
	require.ErrorIs(t, err, ErrBadInput)
}

func TestChunkerApplyDeterministicAcrossBatching(t *testing.T) {
	ns := NewTestNodeStore()
	cfg := NewTestConfig()
	empty, err := prolly.NewBucket(cfg.Prefix(), nil, ns.Codec(), ns.Hasher())
	require.NoError(t, err)

	entries := sequentialEntries(64)
	ch := NewChunker(ns)

	// insert in one batch
	rootAll, _, err := ch.Apply(context.Background(), empty, addsFor(entries))
	require.NoError(t, err)

	// insert one at a time, in the same order, starting from the same empty root
	ns2 := NewTestNodeStore()
	ch2 := NewChunker(ns2)
	root := empty
	for _, u := range addsFor(entries) {
		var err error
		root, _, err = ch2.Apply(context.Background(), root, []Update{u})
		require.NoError(t, err)
	}

	require.Equal(t, rootAll.Digest(), root.Digest())
}
