package cart

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"roomfit/internal/domain"
)

// Mirror is the device-side copy of each user's cart.
type Mirror interface {
	Load(userID string) ([]domain.CartLine, error)
	Save(userID string, lines []domain.CartLine) error
	Delete(userID string) error
	Close() error
}

var bucketCarts = []byte("carts")

type BoltMirror struct{ db *bolt.DB }

// OpenBoltMirror opens (or creates) the mirror file at path.
func OpenBoltMirror(path string) (*BoltMirror, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cart mirror: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCarts)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltMirror{db: db}, nil
}

func (m *BoltMirror) Load(userID string) ([]domain.CartLine, error) {
	lines := []domain.CartLine{}
	err := m.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketCarts).Get([]byte(userID))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &lines)
	})
	return lines, err
}

func (m *BoltMirror) Save(userID string, lines []domain.CartLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCarts).Put([]byte(userID), raw)
	})
}

func (m *BoltMirror) Delete(userID string) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCarts).Delete([]byte(userID))
	})
}

func (m *BoltMirror) Close() error { return m.db.Close() }

type MemMirror struct {
	mu    sync.Mutex
	carts map[string][]domain.CartLine
}

func NewMemMirror() *MemMirror { return &MemMirror{carts: map[string][]domain.CartLine{}} }

func (m *MemMirror) Load(userID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CartLine, len(m.carts[userID]))
	copy(out, m.carts[userID])
	return out, nil
}

func (m *MemMirror) Save(userID string, lines []domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]domain.CartLine, len(lines))
	copy(cp, lines)
	m.carts[userID] = cp
	return nil
}

func (m *MemMirror) Delete(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *MemMirror) Close() error { return nil }
