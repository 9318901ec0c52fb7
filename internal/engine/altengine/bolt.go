// Package altengine adapts a third-party embedded key-value store behind
// the engine.Engine interface (§4.3), so the server can run against
// either the LSKV engine or this one interchangeably.
package altengine

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/boltdb/bolt"
	"github.com/lskv/lskv/internal/engine"
	"github.com/lskv/lskv/internal/kverrors"
)

// Name is the engine marker value this adapter writes/expects (§6.4).
const Name = "bolt"

const dbFileName = "bolt.db"

var bucketName = []byte("data")

// BoltEngine wraps a github.com/boltdb/bolt database opened at a
// directory path, exposing it behind engine.Engine.
type BoltEngine struct {
	db *bolt.DB
}

var _ engine.Engine = (*BoltEngine)(nil)

// Open creates or reuses a bolt store at dir.
func Open(dir string) (*BoltEngine, error) {
	path := filepath.Join(dir, dbFileName)
	db, err := bolt.Open(path, 0644, nil)
	if err != nil {
		return nil, kverrors.WrapAltEngine("open", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, kverrors.WrapAltEngine("create bucket", err)
	}

	slog.Info("altengine: opened bolt store", "path", path)
	return &BoltEngine{db: db}, nil
}

// Set implements engine.Engine. bolt's Update commits and fsyncs the
// transaction before returning, so success already implies durability —
// no separate flush call is needed (§4.3).
func (b *BoltEngine) Set(key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return kverrors.WrapAltEngine("set", err)
	}
	return nil
}

// Get implements engine.Engine. Bolt's returned byte slices are only
// valid for the lifetime of the transaction, so the value is copied out
// before View returns. Stored bytes are decoded as UTF-8 text; any
// non-UTF-8 bytes are replaced (§4.3, §9) since strings are the declared
// data model.
func (b *BoltEngine) Get(key string) (string, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			value = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return "", false, kverrors.WrapAltEngine("get", err)
	}
	if value == nil {
		return "", false, nil
	}
	return strings.ToValidUTF8(string(value), "�"), true, nil
}

// Remove implements engine.Engine.
func (b *BoltEngine) Remove(key string) error {
	var existed bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		existed = bucket.Get([]byte(key)) != nil
		if !existed {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return kverrors.WrapAltEngine("remove", err)
	}
	if !existed {
		return kverrors.NewKeyNotFound(key)
	}
	return nil
}

// Close implements engine.Engine.
func (b *BoltEngine) Close() error {
	if err := b.db.Close(); err != nil {
		return kverrors.WrapAltEngine("close", err)
	}
	return nil
}
