// Package cart mirrors the signed-in user's server cart rows locally. The
// server copy is the source of truth: every mutation goes to the gateway
// first and, except for AddItem, is followed by a full re-fetch.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"roomfit/internal/domain"
	"roomfit/internal/gateway"
)

var (
	ErrUnauthenticated = errors.New("please sign in to use the cart")
	ErrSoldOut         = errors.New("this item is out of stock")
	ErrStockLimit      = errors.New("not enough stock")
)

type Store struct {
	carts  gateway.Carts
	stock  gateway.Inventory
	mirror Mirror

	// mu serializes mutations so each re-fetch lands in issue order.
	mu sync.Mutex
}

// NewStore builds a store over carts. When stock is nil, quantities are
// capped at the stock carried by the product or cart line instead.
func NewStore(carts gateway.Carts, stock gateway.Inventory, m Mirror) *Store {
	if m == nil {
		m = NewMemMirror()
	}
	return &Store{carts: carts, stock: stock, mirror: m}
}

// AddItem upserts qty of p for the user and merges the same delta into the
// mirror without a re-fetch. The mirrored quantity plus qty may not exceed
// the product's stock.
func (s *Store) AddItem(ctx context.Context, userID string, p domain.Product, qty int) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.mirror.Load(userID)
	if err != nil {
		return err
	}
	have := 0
	for _, l := range lines {
		if l.ProductID == p.ID {
			have = l.Quantity
		}
	}
	stock, err := s.stockOf(ctx, p.ID, p.Stock)
	if err != nil {
		return err
	}
	if err := checkStock(have+qty, stock); err != nil {
		return err
	}

	if err := s.carts.UpsertCartItem(ctx, userID, p.ID, qty); err != nil {
		return err
	}

	merged := false
	for i := range lines {
		if lines[i].ProductID == p.ID {
			lines[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, domain.CartLine{
			ProductID: p.ID,
			Quantity:  qty,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Stock:     p.Stock,
		})
	}
	return s.mirror.Save(userID, lines)
}

// UpdateQuantity sets an item's quantity. Values below 1 are ignored and
// values above stock are rejected.
func (s *Store) UpdateQuantity(ctx context.Context, userID, itemID string, qty int) ([]domain.CartLine, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < 1 {
		return s.mirror.Load(userID)
	}
	line, ok, err := s.lineLocked(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, gateway.ErrNotFound
	}
	if qty > line.Quantity {
		if err := s.capLocked(ctx, line, qty); err != nil {
			return nil, err
		}
	}
	return s.setLocked(ctx, userID, itemID, qty)
}

// Increment at the stock limit fails with ErrStockLimit.
func (s *Store) Increment(ctx context.Context, userID, itemID string) ([]domain.CartLine, error) {
	return s.step(ctx, userID, itemID, +1)
}

// Decrement at quantity 1 leaves the item untouched.
func (s *Store) Decrement(ctx context.Context, userID, itemID string) ([]domain.CartLine, error) {
	return s.step(ctx, userID, itemID, -1)
}

func (s *Store) step(ctx context.Context, userID, itemID string, delta int) ([]domain.CartLine, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok, err := s.lineLocked(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, gateway.ErrNotFound
	}
	next := line.Quantity + delta
	if next < 1 {
		return s.mirror.Load(userID)
	}
	if delta > 0 {
		if err := s.capLocked(ctx, line, next); err != nil {
			return nil, err
		}
	}
	return s.setLocked(ctx, userID, itemID, next)
}

func (s *Store) Remove(ctx context.Context, userID, itemID string) ([]domain.CartLine, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.carts.DeleteCartItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.refetchLocked(ctx, userID)
}

// Lines fetches the server cart and replaces the mirror with it.
func (s *Store) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refetchLocked(ctx, userID)
}

// Cached returns the mirrored lines without a server round trip.
func (s *Store) Cached(userID string) []domain.CartLine {
	lines, _ := s.mirror.Load(userID)
	return lines
}

func (s *Store) Count(userID string) int {
	n := 0
	for _, l := range s.Cached(userID) {
		n += l.Quantity
	}
	return n
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		return err
	}
	return s.mirror.Save(userID, []domain.CartLine{})
}

// Forget drops the local mirror only; the server cart is kept.
func (s *Store) Forget(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.Delete(userID)
}

func (s *Store) setLocked(ctx context.Context, userID, itemID string, qty int) ([]domain.CartLine, error) {
	if err := s.carts.SetCartQuantity(ctx, userID, itemID, qty); err != nil {
		return nil, err
	}
	return s.refetchLocked(ctx, userID)
}

func (s *Store) refetchLocked(ctx context.Context, userID string) ([]domain.CartLine, error) {
	lines, err := s.carts.CartLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.mirror.Save(userID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Store) stockOf(ctx context.Context, productID string, known int) (int, error) {
	if s.stock == nil {
		return known, nil
	}
	return s.stock.Stock(ctx, productID)
}

func (s *Store) capLocked(ctx context.Context, line domain.CartLine, want int) error {
	stock, err := s.stockOf(ctx, line.ProductID, line.Stock)
	if err != nil {
		return err
	}
	return checkStock(want, stock)
}

func checkStock(want, stock int) error {
	switch {
	case stock <= 0:
		return ErrSoldOut
	case want > stock:
		return fmt.Errorf("%w: only %d left", ErrStockLimit, stock)
	}
	return nil
}

// lineLocked looks in the mirror first and falls back to one re-fetch,
// since AddItem leaves mirrored lines without a server id.
func (s *Store) lineLocked(ctx context.Context, userID, itemID string) (domain.CartLine, bool, error) {
	lines, err := s.mirror.Load(userID)
	if err != nil {
		return domain.CartLine{}, false, err
	}
	if l, ok := find(lines, itemID); ok {
		return l, true, nil
	}
	lines, err = s.refetchLocked(ctx, userID)
	if err != nil {
		return domain.CartLine{}, false, err
	}
	l, ok := find(lines, itemID)
	return l, ok, nil
}

func find(lines []domain.CartLine, itemID string) (domain.CartLine, bool) {
	for _, l := range lines {
		if l.ID == itemID {
			return l, true
		}
	}
	return domain.CartLine{}, false
}
