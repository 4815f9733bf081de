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

package blockstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/prollytree/blockstore"
	"github.com/dolthub/prollytree/prolly"
)

func TestBoltStorePutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	store, err := blockstore.OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	cid := prolly.CID{CodecID: 1, HashID: 1}
	cid.Digest[0] = 0x42
	data := []byte("bolt-backed bucket bytes")

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, cid, data))

	got, err := store.Get(ctx, cid)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestBoltStoreNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	store, err := blockstore.OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	var cid prolly.CID
	cid.Digest[0] = 0x99

	_, err = store.Get(context.Background(), cid)
	require.ErrorIs(t, err, blockstore.ErrNotFound)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	store, err := blockstore.OpenBoltStore(path)
	require.NoError(t, err)

	cid := prolly.CID{CodecID: 1, HashID: 1}
	cid.Digest[1] = 0x7

	require.NoError(t, store.Put(context.Background(), cid, []byte("durable")))
	require.NoError(t, store.Close())

	reopened, err := blockstore.OpenBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), cid)
	require.NoError(t, err)
	require.Equal(t, []byte("durable"), got)
}
