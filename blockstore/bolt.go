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

package blockstore

import (
	"context"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/dolthub/prollytree/prolly"
)

var blocksBucketName = []byte("blocks")

// BoltStore is a durable Store backed by a single-file boltdb database.
// Bolt's own transactions provide the store's idempotent-write guarantee
// for free: Put is a blind upsert keyed by digest, safe to race because
// content addressing means racing writers agree on the value.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if necessary) a bolt database at path and
// ensures the blocks bucket exists.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "blockstore: opening %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "blockstore: creating blocks bucket")
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying bolt database file.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func keyFor(cid prolly.CID) []byte {
	return cid.Digest[:]
}

// Get implements Store.
func (b *BoltStore) Get(_ context.Context, cid prolly.CID) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blocksBucketName).Get(keyFor(cid))
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put implements Store.
func (b *BoltStore) Put(_ context.Context, cid prolly.CID, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucketName).Put(keyFor(cid), data)
	})
}

var _ Store = (*BoltStore)(nil)
