package cache

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"
)

// Fingerprint returns the hash last recorded for target, or "" if none.
func (s *Store) Fingerprint(target string) (string, error) {
	var out string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bFingerprints).Get([]byte(target)); v != nil {
			out = string(v)
		}
		return nil
	})
	return out, err
}

func (s *Store) SetFingerprint(target, hash string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bFingerprints).Put([]byte(target), []byte(hash))
	})
}

// Manifest returns the paths last recorded for target, or nil if none.
func (s *Store) Manifest(target string) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bManifests).Get([]byte(target))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &out)
	})
	return out, err
}

// RecordBuild stores the hash and the written paths for target in one
// transaction.
func (s *Store) RecordBuild(target, hash string, paths []string) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bManifests).Put([]byte(target), data); err != nil {
			return err
		}
		return tx.Bucket(bFingerprints).Put([]byte(target), []byte(hash))
	})
}
