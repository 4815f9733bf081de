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
	"bytes"
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/dolthub/prollytree/hash"
	"github.com/dolthub/prollytree/prolly"
)

// Op tags an Update as an insert-or-replace or a removal (spec §4.E).
type Op int

const (
	// OpAdd inserts or replaces the entry at its tuple.
	OpAdd Op = iota
	// OpRm removes the entry at the given tuple, if present.
	OpRm
)

// Update is one element of the chunker's input: a change at a tuple,
// tagged with the level it applies to. Callers always submit level-0
// updates; the engine synthesizes higher-level updates itself as it
// propagates (spec §4.E).
type Update struct {
	Level uint32
	Tuple prolly.Tuple
	Op    Op
	Entry prolly.Entry // meaningful only when Op == OpAdd
}

// NodeDiff is one leaf-level entry change: From/To nil denotes insert or
// remove respectively (spec §6 ProllyTreeDiff).
type NodeDiff struct {
	From *prolly.Entry
	To   *prolly.Entry
}

// BucketDiff is one bucket identity change.
type BucketDiff struct {
	From *prolly.Bucket
	To   *prolly.Bucket
}

// Diff is the accumulated result of one Chunker.Apply call.
type Diff struct {
	Nodes   []NodeDiff
	Buckets []BucketDiff
}

// sortUpdates imposes the priority order spec §4.E requires: level
// ascending (smallest level processed first), tuple ascending within a
// level.
func sortUpdates(updates []Update) {
	sort.SliceStable(updates, func(i, j int) bool {
		if updates[i].Level != updates[j].Level {
			return updates[i].Level < updates[j].Level
		}
		return updates[i].Tuple.Less(updates[j].Tuple)
	})
}

// validateUpdates enforces the caller ordering contract (spec §4.E): a
// strictly ascending, duplicate-free sequence of level-0 updates, with at
// most one of Add/Rm per tuple. Detected only at the boundary where
// callers submit a batch — updates the engine synthesizes internally
// during propagation are not re-validated.
func validateUpdates(updates []Update) error {
	for i := 1; i < len(updates); i++ {
		prev, cur := updates[i-1], updates[i]
		if prev.Level != 0 || cur.Level != 0 {
			continue
		}
		switch prev.Tuple.Compare(cur.Tuple) {
		case 0:
			return errors.Wrapf(ErrBadInput, "duplicate tuple in update batch")
		case 1:
			return errors.Wrapf(ErrBadInput, "updates not strictly ascending by tuple")
		}
	}
	return nil
}

// handleUpdate implements spec §4.E's per-tuple reconciliation table.
func handleUpdate(existing prolly.Entry, existingOK bool, u Update) (result prolly.Entry, resultOK bool, diff *NodeDiff) {
	switch u.Op {
	case OpAdd:
		if existingOK {
			if bytes.Equal(existing.Message, u.Entry.Message) {
				return existing, true, nil
			}
			old := existing
			return u.Entry, true, &NodeDiff{From: &old, To: &u.Entry}
		}
		added := u.Entry
		return u.Entry, true, &NodeDiff{From: nil, To: &added}
	case OpRm:
		if existingOK {
			old := existing
			return prolly.Entry{}, false, &NodeDiff{From: &old, To: nil}
		}
		return prolly.Entry{}, false, nil
	}
	return existing, existingOK, nil
}

// mergeAndReconcile walks leftovers++bucket entries and updates, both
// tuple-ordered, applying handleUpdate at matching tuples and passing
// through untouched entries, yielding one merged ordered entry stream plus
// the node diffs produced along the way.
func mergeAndReconcile(existing []prolly.Entry, updates []Update) (merged []prolly.Entry, diffs []NodeDiff) {
	i, j := 0, 0
	for i < len(existing) || j < len(updates) {
		switch {
		case j >= len(updates):
			merged = append(merged, existing[i])
			i++
		case i >= len(existing):
			if r, ok, d := handleUpdate(prolly.Entry{}, false, updates[j]); ok {
				merged = append(merged, r)
				if d != nil {
					diffs = append(diffs, *d)
				}
			}
			j++
		default:
			switch existing[i].Tuple().Compare(updates[j].Tuple) {
			case -1:
				merged = append(merged, existing[i])
				i++
			case 1:
				if r, ok, d := handleUpdate(prolly.Entry{}, false, updates[j]); ok {
					merged = append(merged, r)
					if d != nil {
						diffs = append(diffs, *d)
					}
				}
				j++
			default:
				r, ok, d := handleUpdate(existing[i], true, updates[j])
				if ok {
					merged = append(merged, r)
				}
				if d != nil {
					diffs = append(diffs, *d)
				}
				i++
				j++
			}
		}
	}
	return merged, diffs
}

// updateBucket implements spec §4.E's per-bucket rebuild. average and
// level parameterize the boundary predicate for this bucket's level;
// codec/hasher build the emitted buckets with the tree's own wire format.
func updateBucket(
	bucket prolly.Bucket,
	leftovers []prolly.Entry,
	updates []Update,
	isHead bool,
	average uint32,
	level uint32,
	prefix prolly.Prefix,
	codec prolly.Codec,
	hasher hash.Hasher,
) (emitted []prolly.Bucket, newLeftovers []prolly.Entry, diffs []NodeDiff, err error) {
	existing := make([]prolly.Entry, 0, len(leftovers)+bucket.Count())
	existing = append(existing, leftovers...)
	existing = append(existing, bucket.Entries()...)

	merged, diffs := mergeAndReconcile(existing, updates)

	isBoundary := prolly.IsBoundary(average, level)

	var cut int
	for idx, e := range merged {
		if isBoundary(e) {
			b, berr := prolly.NewBucket(prefix.WithLevel(level), append([]prolly.Entry(nil), merged[cut:idx+1]...), codec, hasher)
			if berr != nil {
				return nil, nil, nil, berr
			}
			emitted = append(emitted, b)
			cut = idx + 1
		}
	}
	newLeftovers = append([]prolly.Entry(nil), merged[cut:]...)

	if isHead && (len(newLeftovers) > 0 || len(emitted) == 0) {
		b, berr := prolly.NewBucket(prefix.WithLevel(level), newLeftovers, codec, hasher)
		if berr != nil {
			return nil, nil, nil, berr
		}
		emitted = append(emitted, b)
		newLeftovers = nil
	}

	return emitted, newLeftovers, diffs, nil
}

// Chunker drives the bottom-up rebuild described in spec §4.E: it folds a
// batch of level-0 updates into a tree's existing buckets, rechunking at
// each boundary, and propagates the resulting bucket-identity changes
// upward until a level collapses to a single bucket — the new root.
type Chunker struct {
	ns *NodeStore
}

// NewChunker returns a Chunker writing new buckets through ns.
func NewChunker(ns *NodeStore) *Chunker {
	return &Chunker{ns: ns}
}

// Apply rebuilds root with updates applied, returning the new root bucket
// and the accumulated Diff. updates must be level-0, strictly ascending by
// tuple, and duplicate-free (ErrBadInput otherwise); the engine itself
// synthesizes and re-sorts higher-level updates as it climbs.
func (ch *Chunker) Apply(ctx context.Context, root prolly.Bucket, updates []Update) (prolly.Bucket, Diff, error) {
	if err := validateUpdates(updates); err != nil {
		return root, Diff{}, err
	}
	if len(updates) == 0 {
		return root, Diff{}, nil
	}

	ns := ch.ns
	codec := ns.Codec()
	hasher := ns.Hasher()
	prefix := root.Prefix()
	average := prefix.Average
	originalRootLevel := root.Level()

	pending := append([]Update(nil), updates...)
	sortUpdates(pending)

	var diff Diff
	var cur *Cursor
	leftovers := map[uint32][]prolly.Entry{}
	var newRoot *prolly.Bucket

	for len(pending) > 0 {
		level := pending[0].Level
		for l, lo := range leftovers {
			if len(lo) > 0 && l < level {
				level = l
			}
		}
		n := 0
		for n < len(pending) && pending[n].Level == level {
			n++
		}
		levelUpdates := pending[:n]
		synthetic := level > originalRootLevel

		var updatee prolly.Bucket
		var isHeadOfLevel, soleBucketOnLevel bool

		if synthetic {
			// No level this high exists in the tree being rebuilt yet;
			// the chunker treats it as a single empty bucket about to
			// receive the entries pushed up from below (spec §4.E, new
			// root growth).
			isHeadOfLevel = true
			soleBucketOnLevel = true
		} else {
			lvl := int(level)
			var err error
			switch {
			case cur == nil:
				cur, err = NewCursorAtTuple(ctx, ns, root, levelUpdates[0].Tuple, lvl)
			case len(leftovers[level]) > 0:
				// A pending leftover must glue to the physically next
				// bucket on the level, whether or not it has an update
				// of its own.
				err = cur.NextBucket(ctx, lvl)
			default:
				err = cur.NextTuple(ctx, levelUpdates[0].Tuple, lvl)
			}
			if err != nil {
				return root, Diff{}, err
			}
			updatee = cur.CurrentBucket()
			isHeadOfLevel = cur.IsAtHead()
			soleBucketOnLevel = isHeadOfLevel && cur.IsAtTail()
		}

		var m int
		if isHeadOfLevel {
			m = n
		} else {
			boundary, _ := updatee.Boundary()
			for m < n && levelUpdates[m].Tuple.Compare(boundary.Tuple()) <= 0 {
				m++
			}
		}
		thisUpdates := levelUpdates[:m]
		deferred := append([]Update(nil), levelUpdates[m:]...)

		incoming := leftovers[level]
		emitted, newLeftovers, nodeDiffs, err := updateBucket(
			updatee, incoming, thisUpdates, isHeadOfLevel,
			average, level, prefix, codec, hasher,
		)
		if err != nil {
			return root, Diff{}, err
		}
		leftovers[level] = newLeftovers

		// changed is false only for a round that carried in no leftovers
		// and whose updates were all no-ops (re-Add of a byte-identical
		// entry, Rm of an absent tuple): in that case updateBucket
		// necessarily re-emits the same bucket it was handed, so neither
		// the write nor the bucket-diff record should happen (spec §4.E) —
		// only a round that actually altered this bucket's entries touches
		// the store or the diff.
		changed := len(nodeDiffs) > 0 || len(incoming) > 0
		if changed {
			if !synthetic {
				old := updatee
				diff.Buckets = append(diff.Buckets, BucketDiff{From: &old})
			}
			for i := range emitted {
				if err := ns.WriteBucket(ctx, emitted[i]); err != nil {
					return root, Diff{}, err
				}
				diff.Buckets = append(diff.Buckets, BucketDiff{To: &emitted[i]})
			}
		}
		if level == 0 {
			diff.Nodes = append(diff.Nodes, nodeDiffs...)
		}

		pending = append(deferred, pending[n:]...)

		if !synthetic && changed {
			if pe, ok := updatee.ParentEntry(); ok {
				pending = append(pending, Update{Level: level + 1, Tuple: pe.Tuple(), Op: OpRm, Entry: pe})
			}
		}
		for i := range emitted {
			if pe, ok := emitted[i].ParentEntry(); ok {
				pending = append(pending, Update{Level: level + 1, Tuple: pe.Tuple(), Op: OpAdd, Entry: pe})
			}
		}
		sortUpdates(pending)

		if soleBucketOnLevel && len(emitted) == 1 && len(newLeftovers) == 0 {
			candidate := emitted[0]
			newRoot = &candidate
			break
		}
	}

	if newRoot == nil {
		return root, Diff{}, ErrNoNewRoot
	}

	final := *newRoot
	if final.Empty() && final.Level() > 0 {
		// Every level above 0 collapsed to nothing: shrink the tree down
		// to the canonical empty leaf rather than leaving an empty
		// internal bucket as root (spec §3 invariant I5).
		shrunk, err := prolly.NewBucket(prefix.WithLevel(0), nil, codec, hasher)
		if err != nil {
			return root, Diff{}, err
		}
		diff.Buckets = append(diff.Buckets, BucketDiff{From: &final})
		final = shrunk
		diff.Buckets = append(diff.Buckets, BucketDiff{To: &final})
	}

	if err := ns.WriteBucket(ctx, final); err != nil {
		return root, Diff{}, err
	}

	return final, diff, nil
}
