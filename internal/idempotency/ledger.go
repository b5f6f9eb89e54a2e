// Package idempotency records which snapshot a client-supplied
// Idempotency-Key produced, so a retried create returns the original
// snapshot instead of making a second one.
package idempotency

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "snapshot_keys"

// PendingTimeout is how long a reservation may stay incomplete before
// another request may take it over.
const PendingTimeout = 30 * time.Second

// ErrInFlight is returned when another request holding the same key has not
// finished yet.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

type record struct {
	SnapshotID string    `json:"snapshotId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (r record) pending() bool {
	return r.SnapshotID == ""
}

type Ledger struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the ledger file at path. Completed keys are
// remembered for ttl.
func Open(path string, ttl time.Duration) (*Ledger, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open idempotency ledger: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create idempotency bucket: %w", err)
	}

	return &Ledger{db: db, ttl: ttl, now: time.Now}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func ledgerKey(userID, key string) []byte {
	return []byte(userID + "\x00" + key)
}

// Reserve claims key for userID. When the key already produced a snapshot
// its id is returned with reserved false. When the key is unknown, expired
// or abandoned, a reservation is written and reserved is true; the caller
// must then Complete or Release it.
func (l *Ledger) Reserve(userID, key string) (snapshotID string, reserved bool, err error) {
	now := l.now().UTC()

	err = l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		k := ledgerKey(userID, key)

		if existing := b.Get(k); existing != nil {
			var rec record
			if err := json.Unmarshal(existing, &rec); err != nil {
				return fmt.Errorf("failed to decode idempotency record: %w", err)
			}
			switch {
			case !rec.pending() && now.Sub(rec.CreatedAt) < l.ttl:
				snapshotID = rec.SnapshotID
				return nil
			case rec.pending() && now.Sub(rec.CreatedAt) < PendingTimeout:
				return ErrInFlight
			}
		}

		data, err := json.Marshal(record{CreatedAt: now})
		if err != nil {
			return err
		}
		reserved = true
		return b.Put(k, data)
	})
	if err != nil {
		return "", false, err
	}
	return snapshotID, reserved, nil
}

// Complete binds a reserved key to the snapshot it produced.
func (l *Ledger) Complete(userID, key, snapshotID string) error {
	data, err := json.Marshal(record{SnapshotID: snapshotID, CreatedAt: l.now().UTC()})
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(ledgerKey(userID, key), data)
	})
}

// Release drops a reservation after a failed create so the client can
// retry. Releasing an unknown key is a no-op.
func (l *Ledger) Release(userID, key string) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete(ledgerKey(userID, key))
	})
}
