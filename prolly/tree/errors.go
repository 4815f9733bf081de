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

// Package tree implements the stateful traversal (Cursor) and bottom-up
// rebuild (Chunker/Differ) that operate over the prolly package's data
// model (spec §4.C-F).
package tree

import "github.com/pkg/errors"

// Error kinds from spec §7. These are sentinels, not a type hierarchy;
// callers compare with errors.Is. All are fatal for the current operation
// (the core performs no retries).
var (
	// ErrMalformedBlock: codec decode failure or non-canonical encoding.
	ErrMalformedBlock = errors.New("tree: malformed block")
	// ErrDigestMismatch: fetched bytes hash != requested digest.
	ErrDigestMismatch = errors.New("tree: digest mismatch")
	// ErrPrefixMismatch: fetched bucket prefix != expected (excluding level).
	ErrPrefixMismatch = errors.New("tree: prefix mismatch")
	// ErrLevelMismatch: fetched bucket prefix level != expected level.
	ErrLevelMismatch = errors.New("tree: level mismatch")
	// ErrMalformedTree: structural invariant violated.
	ErrMalformedTree = errors.New("tree: malformed tree")
	// ErrCursorLocked: reentrant mutating op on the same cursor.
	ErrCursorLocked = errors.New("tree: cursor locked")
	// ErrCursorInvalidMove: move to same level, negative level, or above root.
	ErrCursorInvalidMove = errors.New("tree: invalid cursor move")
	// ErrSameLevel is the specific CursorInvalidMove case of moveToLevel
	// being asked to move to the level the cursor is already at.
	ErrSameLevel = errors.Wrap(ErrCursorInvalidMove, "target equals current level")
	// ErrBadInput: unordered or duplicated updates supplied to the
	// mutation engine (best-effort detection).
	ErrBadInput = errors.New("tree: bad input")
	// ErrNoNewRoot: mutation loop terminated without finding a root. This
	// indicates a logic bug; it must not occur on valid input.
	ErrNoNewRoot = errors.New("tree: mutation loop produced no new root")
)
