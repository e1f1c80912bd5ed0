// Package alertstore persists which (SPN, source address) OutOfRange
// alerts have already been raised, so a long-running agent publishes
// each distinct condition once instead of on every frame that still
// carries it. A condition stays recorded until Clear (or ClearAll) is
// called, so the caller controls when a resolved condition may be
// re-raised.
package alertstore

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketName = "active_alerts"

// Open opens (or creates) a bbolt database at path and ensures the alert
// bucket exists.
func Open(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func key(spn int, sa uint8) []byte {
	return []byte(fmt.Sprintf("%d:%d", spn, sa))
}

// IsNew reports whether the (spn, sa) OutOfRange condition has not been
// seen before, recording it so a later call with the same key returns
// false.
func IsNew(db *bolt.DB, spn int, sa uint8) (bool, error) {
	k := key(spn, sa)
	var isNew bool
	err := db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get(k) == nil {
			isNew = true
			return b.Put(k, []byte{1})
		}
		isNew = false
		return nil
	})
	return isNew, err
}

// Clear removes the (spn, sa) condition, e.g. once the value returns to
// its operational range.
func Clear(db *bolt.DB, spn int, sa uint8) error {
	k := key(spn, sa)
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Delete(k)
	})
}

// ClearAll drops every recorded alert condition.
func ClearAll(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}
