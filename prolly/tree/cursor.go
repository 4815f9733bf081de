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
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/dolthub/prollytree/hash"
	"github.com/dolthub/prollytree/internal/logging"
	"github.com/dolthub/prollytree/prolly"
)

// cursorState is the mutable position a Cursor protects with its lock: a
// non-empty stack of buckets from root to the current level, plus the
// current index in the topmost bucket's entries, plus the done flag
// (spec §4.D).
type cursorState struct {
	ns      *NodeStore
	buckets []prolly.Bucket
	index   int
	isDone  bool
}

func (s *cursorState) level() uint32     { return s.buckets[len(s.buckets)-1].Level() }
func (s *cursorState) rootLevel() uint32 { return s.buckets[0].Level() }

func (s *cursorState) currentBucket() prolly.Bucket { return s.buckets[len(s.buckets)-1] }

func (s *cursorState) current() (prolly.Entry, error) {
	if s.index < 0 {
		return prolly.Entry{}, errors.New("tree: current() on empty bucket")
	}
	return s.currentBucket().Entries()[s.index], nil
}

// clone deep-copies the bucket-stack slice (buckets themselves are
// immutable values, so only the slice header needs copying) so a mutating
// operation can work on a private snapshot and discard it on error without
// ever touching the committed Cursor state.
func (s *cursorState) clone() *cursorState {
	bs := make([]prolly.Bucket, len(s.buckets))
	copy(bs, s.buckets)
	return &cursorState{ns: s.ns, buckets: bs, index: s.index, isDone: s.isDone}
}

// moveToLevel implements spec §4.D's moveToLevel. guide == nil selects the
// spec's default: guideByLowestIndex when descending, guideByTuple(current
// tuple before the move) when ascending.
func (s *cursorState) moveToLevel(ctx context.Context, target int, guide guideFunc) error {
	cur := int(s.level())
	if target == cur {
		return ErrSameLevel
	}
	if target < 0 || target > int(s.rootLevel()) {
		return ErrCursorInvalidMove
	}

	if guide == nil {
		if target > cur {
			guide = s.ascendDefaultGuide()
		} else {
			guide = guideByLowestIndex
		}
	}

	if target > cur {
		for int(s.level()) > target {
			s.buckets = s.buckets[:len(s.buckets)-1]
		}
		s.index = guide(s.currentBucket().Entries())
		return nil
	}

	for int(s.level()) > target {
		entry, err := s.current()
		if err != nil {
			logging.Logger().Error().Msg("tree: descend from empty bucket")
			return errors.Wrap(ErrMalformedTree, "descend from empty bucket")
		}
		childDigest, err := messageDigest(entry)
		if err != nil {
			return err
		}
		childPrefix := s.currentBucket().Prefix().WithLevel(s.level() - 1)
		child, err := s.ns.LoadBucket(ctx, childDigest, childPrefix)
		if err != nil {
			return err
		}
		if child.Empty() && childPrefix.Level != 0 {
			logging.Logger().Error().Stringer("digest", childDigest).
				Uint32("level", childPrefix.Level).
				Msg("tree: internal bucket decoded empty")
			return errors.Wrap(ErrMalformedTree, "internal bucket decoded empty")
		}
		s.buckets = append(s.buckets, child)
		s.index = guide(child.Entries())
	}
	return nil
}

// ascendDefaultGuide captures current() before the stack changes, per spec
// "guideByTuple(current()) when ascending"; falls back to
// guideByLowestIndex if the topmost bucket is currently empty.
func (s *cursorState) ascendDefaultGuide() guideFunc {
	entry, err := s.current()
	if err != nil {
		return guideByLowestIndex
	}
	return guideByTuple(entry.Tuple())
}

func messageDigest(e prolly.Entry) (hash.Hash, error) {
	if len(e.Message) != hash.ByteLen {
		logging.Logger().Error().Int("length", len(e.Message)).Msg("tree: entry message is not a digest")
		return hash.Hash{}, errors.Wrap(ErrMalformedTree, "entry message is not a digest")
	}
	return hash.New(e.Message), nil
}

// overflowed reports whether the current index is the last valid index
// (or the bucket is empty, treated as "index -1 is overflowed") — the
// condition moveSideways must resolve by climbing before it can advance.
func (s *cursorState) overflowed() bool {
	entries := s.currentBucket().Entries()
	return s.index == len(entries)-1
}

// moveSideways implements spec §4.D's moveSideways.
func (s *cursorState) moveSideways(ctx context.Context) error {
	startLevel := int(s.level())

	for s.overflowed() {
		if len(s.buckets) == 1 {
			s.isDone = true
			return nil
		}
		if err := s.moveToLevel(ctx, int(s.level())+1, nil); err != nil {
			return err
		}
	}

	s.index++

	if int(s.level()) != startLevel {
		return s.moveToLevel(ctx, startLevel, guideByLowestIndex)
	}
	return nil
}

// next implements spec §4.D's next(level).
func (s *cursorState) next(ctx context.Context, level int) error {
	if s.isDone {
		return nil
	}
	if level > int(s.rootLevel()) {
		s.isDone = true
		return nil
	}
	preLevel := int(s.level())
	if level != preLevel {
		if err := s.moveToLevel(ctx, level, nil); err != nil {
			return err
		}
	}
	if level >= preLevel {
		return s.moveSideways(ctx)
	}
	return nil
}

// nextBucket implements spec §4.D's nextBucket(level).
func (s *cursorState) nextBucket(ctx context.Context, level int) error {
	if s.isDone {
		return nil
	}
	if level > int(s.rootLevel()) {
		s.isDone = true
		return nil
	}
	if level != int(s.level()) {
		if err := s.moveToLevel(ctx, level, nil); err != nil {
			return err
		}
	}
	s.index = len(s.currentBucket().Entries()) - 1
	return s.moveSideways(ctx)
}

// nextTuple implements spec §4.D's nextTuple(t, level).
func (s *cursorState) nextTuple(ctx context.Context, t prolly.Tuple, level int) error {
	if s.isDone {
		return nil
	}
	if level > int(s.rootLevel()) {
		s.isDone = true
		return nil
	}

	for int(s.level()) < int(s.rootLevel()) {
		boundary, ok := s.currentBucket().Boundary()
		if ok && !boundary.Tuple().Less(t) {
			break
		}
		if err := s.moveToLevel(ctx, int(s.level())+1, nil); err != nil {
			return err
		}
	}

	entries := s.currentBucket().Entries()
	if idx := guideByTuple(t)(entries); idx > s.index {
		s.index = idx
	}

	if level < int(s.level()) {
		return s.moveToLevel(ctx, level, guideByTuple(t))
	}
	return nil
}

// jumpTo implements spec §4.D's jumpTo(t, level).
func (s *cursorState) jumpTo(ctx context.Context, t prolly.Tuple, level int) error {
	if s.isDone {
		return nil
	}
	root := s.buckets[0]
	s.buckets = []prolly.Bucket{root}
	s.index = guideByTuple(t)(root.Entries())
	s.isDone = false

	if level != int(s.level()) {
		return s.moveToLevel(ctx, level, guideByTuple(t))
	}
	return nil
}

// isAtTail reports whether every adjacent (parent, child) pair in the
// stack is linked by the parent's FIRST entry (spec §4.D).
func (s *cursorState) isAtTail() bool {
	for i := 0; i+1 < len(s.buckets); i++ {
		entries := s.buckets[i].Entries()
		if len(entries) == 0 {
			return false
		}
		if !bytes.Equal(entries[0].Message, s.buckets[i+1].Digest().Bytes()) {
			return false
		}
	}
	return true
}

// isAtHead reports whether every adjacent (parent, child) pair in the
// stack is linked by the parent's LAST entry (spec §4.D).
func (s *cursorState) isAtHead() bool {
	for i := 0; i+1 < len(s.buckets); i++ {
		entries := s.buckets[i].Entries()
		if len(entries) == 0 {
			return false
		}
		last := entries[len(entries)-1]
		if !bytes.Equal(last.Message, s.buckets[i+1].Digest().Bytes()) {
			return false
		}
	}
	return true
}

// Cursor is the public, lock-protected handle over a cursorState (spec
// §4.D). Exclusive access during a mutating call is enforced with a
// non-blocking try-lock: a second concurrent mutating call observes the
// lock held and fails immediately with ErrCursorLocked rather than
// queueing (spec §5).
type Cursor struct {
	ns     *NodeStore
	state  *cursorState
	locked atomic.Bool
}

// newCursor builds a Cursor rooted at root, with the stack and index set
// by guide.
func newCursor(ns *NodeStore, root prolly.Bucket, guide guideFunc) *Cursor {
	idx := guide(root.Entries())
	return &Cursor{
		ns:    ns,
		state: &cursorState{ns: ns, buckets: []prolly.Bucket{root}, index: idx},
	}
}

// NewCursorAtStart returns a cursor over root positioned at the leftmost
// leaf entry.
func NewCursorAtStart(ctx context.Context, ns *NodeStore, root prolly.Bucket) (*Cursor, error) {
	c := newCursor(ns, root, guideByLowestIndex)
	if err := c.runMutating(ctx, func(s *cursorState) error {
		return s.moveToLevel(ctx, 0, guideByLowestIndex)
	}); err != nil {
		if isSameLevel(err) {
			return c, nil // root is already level 0
		}
		return nil, err
	}
	return c, nil
}

// NewCursorAtTuple returns a cursor over root positioned at level with the
// current entry's tuple >= t (the jumpTo contract).
func NewCursorAtTuple(ctx context.Context, ns *NodeStore, root prolly.Bucket, t prolly.Tuple, level int) (*Cursor, error) {
	c := newCursor(ns, root, guideByTuple(t))
	if err := c.JumpTo(ctx, t, level); err != nil {
		return nil, err
	}
	return c, nil
}

func isSameLevel(err error) bool {
	return errors.Is(err, ErrSameLevel) || errors.Is(err, ErrCursorInvalidMove)
}

// runMutating is the lock/snapshot/commit wrapper every mutating method
// uses: try-lock, run fn against a private clone, and only on success
// write the clone back as the committed state (spec §5, §7 — an
// abandoned or failed operation cannot corrupt the cursor).
func (c *Cursor) runMutating(ctx context.Context, fn func(*cursorState) error) error {
	if !c.locked.CompareAndSwap(false, true) {
		return ErrCursorLocked
	}
	defer c.locked.Store(false)

	snapshot := c.state.clone()
	if err := fn(snapshot); err != nil {
		return err
	}
	c.state = snapshot
	return nil
}

// Level returns the level of the topmost bucket.
func (c *Cursor) Level() uint32 { return c.state.level() }

// RootLevel returns the level of the bottom-of-stack (root) bucket.
func (c *Cursor) RootLevel() uint32 { return c.state.rootLevel() }

// Index returns the current index; -1 iff the current bucket is empty.
func (c *Cursor) Index() int { return c.state.index }

// Current returns the entry at the current index.
func (c *Cursor) Current() (prolly.Entry, error) { return c.state.current() }

// Buckets returns a snapshot copy of the bucket stack, root to current.
func (c *Cursor) Buckets() []prolly.Bucket {
	out := make([]prolly.Bucket, len(c.state.buckets))
	copy(out, c.state.buckets)
	return out
}

// CurrentBucket returns the topmost bucket.
func (c *Cursor) CurrentBucket() prolly.Bucket { return c.state.currentBucket() }

// Done reports whether the cursor has been exhausted.
func (c *Cursor) Done() bool { return c.state.isDone }

// Locked reports whether a mutating operation is currently in flight.
func (c *Cursor) Locked() bool { return c.locked.Load() }

// Clone returns an independent Cursor over a copy of the current state.
func (c *Cursor) Clone() *Cursor {
	return &Cursor{ns: c.ns, state: c.state.clone()}
}

// Next advances one tuple at level (default: current level).
func (c *Cursor) Next(ctx context.Context, level ...int) error {
	lvl := c.pickLevel(level)
	return c.runMutating(ctx, func(s *cursorState) error { return s.next(ctx, lvl) })
}

// NextBucket advances to the first entry of the next bucket at level.
func (c *Cursor) NextBucket(ctx context.Context, level ...int) error {
	lvl := c.pickLevel(level)
	return c.runMutating(ctx, func(s *cursorState) error { return s.nextBucket(ctx, lvl) })
}

// NextTuple advances forward until the current tuple is >= t, at level.
func (c *Cursor) NextTuple(ctx context.Context, t prolly.Tuple, level ...int) error {
	lvl := c.pickLevel(level)
	return c.runMutating(ctx, func(s *cursorState) error { return s.nextTuple(ctx, t, lvl) })
}

// JumpTo resets the stack to root and descends to level aimed at t.
func (c *Cursor) JumpTo(ctx context.Context, t prolly.Tuple, level int) error {
	return c.runMutating(ctx, func(s *cursorState) error { return s.jumpTo(ctx, t, level) })
}

// IsAtTail reports whether the path from root is composed of first-entry links.
func (c *Cursor) IsAtTail() bool { return c.state.isAtTail() }

// IsAtHead reports whether the path from root is composed of last-entry links.
func (c *Cursor) IsAtHead() bool { return c.state.isAtHead() }

func (c *Cursor) pickLevel(level []int) int {
	if len(level) > 0 {
		return level[0]
	}
	return int(c.Level())
}

// compare orders two cursors over the same tree by their current tuple;
// a done cursor sorts after every non-done one.
func (c *Cursor) compare(o *Cursor) int {
	if c.Done() != o.Done() {
		if c.Done() {
			return 1
		}
		return -1
	}
	ce, cerr := c.Current()
	oe, oerr := o.Current()
	if cerr != nil || oerr != nil {
		return 0
	}
	return ce.Tuple().Compare(oe.Tuple())
}
