package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"referral_console/internal/model"
)

var (
	bucketName = []byte("session")
	keyToken   = []byte("token")
	keyUser    = []byte("user")
)

// Store persists the session credentials across restarts: one bucket with
// two keys, the bearer token and the serialized user record.
type Store struct {
	db *bolt.DB
}

// Open initializes the bbolt file under dir and ensures the bucket exists
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	db, err := bolt.Open(filepath.Join(dir, "session.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying bbolt file
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes both credentials in a single transaction
func (s *Store) Save(token string, user *model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if err := b.Put(keyToken, []byte(token)); err != nil {
			return err
		}
		return b.Put(keyUser, payload)
	})
}

// SaveUser replaces only the persisted user record, keeping the token
func (s *Store) SaveUser(user *model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(keyUser, payload)
	})
}

// Load reads the persisted pair. ok is false unless both the token and the
// user record are present and the record decodes.
func (s *Store) Load() (token string, user *model.User, ok bool) {
	var rawToken, rawUser []byte
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if v := b.Get(keyToken); v != nil {
			rawToken = append([]byte(nil), v...)
		}
		if v := b.Get(keyUser); v != nil {
			rawUser = append([]byte(nil), v...)
		}
		return nil
	})

	if len(rawToken) == 0 || len(rawUser) == 0 {
		return "", nil, false
	}
	user = &model.User{}
	if err := json.Unmarshal(rawUser, user); err != nil {
		return "", nil, false
	}
	return string(rawToken), user, true
}

// Clear deletes both keys atomically, in one transaction
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if err := b.Delete(keyToken); err != nil {
			return err
		}
		return b.Delete(keyUser)
	})
}
