package cache

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Entry describes a cached value without its payload.
type Entry struct {
	StoredAt time.Time
}

// Fresh reports whether the entry is younger than ttl at now. A zero ttl
// never expires.
func (e Entry) Fresh(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(e.StoredAt) < ttl
}

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// Put stores v as JSON under key, stamped with the current time.
func (s *Store) Put(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	data, err := json.Marshal(envelope{StoredAt: s.now().UTC(), Payload: payload})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bResponses).Put([]byte(key), data)
	})
}

// Get decodes the value stored under key into v.
func (s *Store) Get(key string, v any) (Entry, error) {
	var env envelope
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bResponses).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		// raw is only valid inside the transaction.
		return json.Unmarshal(raw, &env)
	})
	if err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return Entry{}, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return Entry{StoredAt: env.StoredAt}, nil
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bResponses).Delete([]byte(key))
	})
}

// Now is the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}
