// Package bolt persists the last-known-good rule feed in a bbolt database.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/s1-filter/internal/filter/domain"
	"github.com/haukened/s1-filter/internal/filter/repos/rules"
)

var (
	bucketFeed = []byte("feed")
	bucketMeta = []byte("meta")

	keyCurrent = []byte("current")
	keyVersion = []byte("version")
	keyUpdated = []byte("updated")
	keyRules   = []byte("rules")
)

// boltStore implements rules.SnapshotStore using bbolt.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (rules.SnapshotStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketFeed); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// Save replaces the stored feed and bumps the version in one transaction.
func (s *boltStore) Save(feed domain.RuleFeed, updated time.Time) error {
	payload, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("encode rule snapshot: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketFeed).Put(keyCurrent, payload); err != nil {
			return err
		}
		meta := tx.Bucket(bucketMeta)
		version := getUint64(meta, keyVersion) + 1
		if err := meta.Put(keyVersion, putUint64(version)); err != nil {
			return err
		}
		if err := meta.Put(keyUpdated, putUint64(uint64(updated.Unix()))); err != nil {
			return err
		}
		return meta.Put(keyRules, putUint64(uint64(feed.Len())))
	})
}

// Load returns the stored feed, or rules.ErrNoSnapshot when nothing was saved.
func (s *boltStore) Load() (domain.RuleFeed, rules.SnapshotMeta, error) {
	var (
		feed domain.RuleFeed
		meta rules.SnapshotMeta
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketFeed).Get(keyCurrent)
		if v == nil {
			return rules.ErrNoSnapshot
		}
		if err := json.Unmarshal(v, &feed); err != nil {
			return fmt.Errorf("decode rule snapshot: %w", err)
		}
		mb := tx.Bucket(bucketMeta)
		meta.Version = getUint64(mb, keyVersion)
		meta.Updated = time.Unix(int64(getUint64(mb, keyUpdated)), 0)
		meta.Rules = int(getUint64(mb, keyRules))
		return nil
	})
	if err != nil {
		return domain.RuleFeed{}, rules.SnapshotMeta{}, err
	}
	return feed, meta, nil
}

func getUint64(b *bbolt.Bucket, key []byte) uint64 {
	if v := b.Get(key); len(v) == 8 {
		return binary.BigEndian.Uint64(v)
	}
	return 0
}

func putUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
