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

// Package blockstore defines the injected block store interface (spec
// §4.C, §6) and two concrete adapters: an in-memory store for tests and
// short-lived trees, and a bolt-backed store for durable ones.
package blockstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dolthub/prollytree/prolly"
)

// ErrNotFound is returned by Get when no block exists for the requested
// CID (spec §6).
var ErrNotFound = errors.New("blockstore: not found")

// Store is the async, I/O-fallible block store the core consumes. Deletes
// are intentionally absent (spec §6: "Deletes are not required by the
// core").
type Store interface {
	Get(ctx context.Context, cid prolly.CID) ([]byte, error)
	Put(ctx context.Context, cid prolly.CID, data []byte) error
}
