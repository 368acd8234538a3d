package cart_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"roomfit/internal/cart"
	"roomfit/internal/domain"
	"roomfit/internal/gateway"
	"roomfit/internal/repos"
)

// fakeCarts is an in-memory gateway.Carts that counts calls.
type fakeCarts struct {
	mu      sync.Mutex
	rows    map[string]*domain.CartLine // by item id
	nextID  int
	calls   int
	failAll error
}

func newFakeCarts() *fakeCarts { return &fakeCarts{rows: map[string]*domain.CartLine{}} }

func (f *fakeCarts) hit() error {
	f.calls++
	return f.failAll
}

func (f *fakeCarts) UpsertCartItem(_ context.Context, _, productID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit(); err != nil {
		return err
	}
	for _, r := range f.rows {
		if r.ProductID == productID {
			r.Quantity += delta
			return nil
		}
	}
	f.nextID++
	id := "item-" + string(rune('0'+f.nextID))
	f.rows[id] = &domain.CartLine{ID: id, ProductID: productID, Quantity: delta, Name: productID}
	return nil
}

func (f *fakeCarts) CartLines(context.Context, string) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit(); err != nil {
		return nil, err
	}
	out := []domain.CartLine{}
	for _, r := range f.rows {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeCarts) SetCartQuantity(_ context.Context, _, itemID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit(); err != nil {
		return err
	}
	r, ok := f.rows[itemID]
	if !ok {
		return gateway.ErrNotFound
	}
	r.Quantity = qty
	return nil
}

func (f *fakeCarts) DeleteCartItem(_ context.Context, _, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit(); err != nil {
		return err
	}
	delete(f.rows, itemID)
	return nil
}

func (f *fakeCarts) ClearCart(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit(); err != nil {
		return err
	}
	f.rows = map[string]*domain.CartLine{}
	return nil
}

// fixedStock reports the same stock for every product.
type fixedStock int

func (n fixedStock) Stock(context.Context, string) (int, error) { return int(n), nil }

const plenty = fixedStock(100)

var chair = domain.Product{ID: "lounge-chair", Name: "Nordic Lounge Chair", Price: 42000, Stock: 10}

func TestAddItem_Unauthenticated_NoGatewayCall(t *testing.T) {
	fc := newFakeCarts()
	s := cart.NewStore(fc, plenty, nil)

	err := s.AddItem(context.Background(), "", chair, 1)
	if !errors.Is(err, cart.ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
	if fc.calls != 0 {
		t.Fatalf("gateway must not be called, got %d calls", fc.calls)
	}
}

func TestAddItem_MergesDeltaIntoMirror(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCarts()
	s := cart.NewStore(fc, plenty, cart.NewMemMirror())

	if err := s.AddItem(ctx, "u1", chair, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.AddItem(ctx, "u1", chair, 0); err != nil { // clamped to 1
		t.Fatal(err)
	}

	got := s.Cached("u1")
	if len(got) != 1 || got[0].Quantity != 3 {
		t.Fatalf("mirror should hold one line of 3, got %+v", got)
	}
	if s.Count("u1") != 3 {
		t.Fatalf("count = %d", s.Count("u1"))
	}
	// two upserts, no re-fetch
	if fc.calls != 2 {
		t.Fatalf("want 2 gateway calls, got %d", fc.calls)
	}
}

func TestDecrement_FloorAtOne(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCarts()
	s := cart.NewStore(fc, plenty, nil)

	_ = s.AddItem(ctx, "u1", chair, 2)
	lines, err := s.Lines(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	id := lines[0].ID

	lines, err = s.Decrement(ctx, "u1", id)
	if err != nil || lines[0].Quantity != 1 {
		t.Fatalf("want qty 1, got %+v err=%v", lines, err)
	}

	before := fc.calls
	lines, err = s.Decrement(ctx, "u1", id)
	if err != nil {
		t.Fatal(err)
	}
	if lines[0].Quantity != 1 {
		t.Fatalf("decrement at 1 must be a no-op, got %d", lines[0].Quantity)
	}
	if fc.calls != before {
		t.Fatalf("no-op decrement hit the gateway %d times", fc.calls-before)
	}

	lines, _ = s.Increment(ctx, "u1", id)
	if lines[0].Quantity != 2 {
		t.Fatalf("increment: got %d", lines[0].Quantity)
	}
}

func TestUpdateQuantity_BelowOneIgnored(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCarts()
	s := cart.NewStore(fc, plenty, nil)
	_ = s.AddItem(ctx, "u1", chair, 4)
	lines, _ := s.Lines(ctx, "u1")

	before := fc.calls
	lines, err := s.UpdateQuantity(ctx, "u1", lines[0].ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if lines[0].Quantity != 4 || fc.calls != before {
		t.Fatalf("qty 0 should be ignored, got %+v (calls +%d)", lines, fc.calls-before)
	}
}

func TestRemove_RefetchesAndGatewayErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCarts()
	s := cart.NewStore(fc, plenty, nil)
	_ = s.AddItem(ctx, "u1", chair, 1)
	lines, _ := s.Lines(ctx, "u1")

	lines, err := s.Remove(ctx, "u1", lines[0].ID)
	if err != nil || len(lines) != 0 {
		t.Fatalf("remove: %+v err=%v", lines, err)
	}

	fc.failAll = errors.New("network down")
	if _, err := s.Lines(ctx, "u1"); err == nil {
		t.Fatal("gateway error should surface")
	}
}

func TestBoltMirror_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.db")

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	gw := repos.NewGateway(db)

	m, err := cart.OpenBoltMirror(path)
	if err != nil {
		t.Fatal(err)
	}
	s := cart.NewStore(gw.Carts, gw.Inventory, m)
	if err := s.AddItem(ctx, "u-alice", chair, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.AddItem(ctx, "u-alice", chair, 1); err != nil {
		t.Fatal(err)
	}
	_ = m.Close()

	m2, err := cart.OpenBoltMirror(path)
	if err != nil {
		t.Fatal(err)
	}
	defer m2.Close()
	s2 := cart.NewStore(gw.Carts, gw.Inventory, m2)
	if n := s2.Count("u-alice"); n != 3 {
		t.Fatalf("reopened mirror count = %d, want 3", n)
	}

	// server and mirror agree after a re-fetch
	lines, err := s2.Lines(ctx, "u-alice")
	if err != nil || len(lines) != 1 || lines[0].Quantity != 3 {
		t.Fatalf("server lines: %+v err=%v", lines, err)
	}

	if err := s2.Forget("u-alice"); err != nil {
		t.Fatal(err)
	}
	if n := s2.Count("u-alice"); n != 0 {
		t.Fatalf("forget should empty the mirror, got %d", n)
	}
}

func TestAddItem_StockCaps(t *testing.T) {
	ctx := context.Background()

	fc := newFakeCarts()
	s := cart.NewStore(fc, fixedStock(0), nil)
	if err := s.AddItem(ctx, "u1", chair, 1); !errors.Is(err, cart.ErrSoldOut) {
		t.Fatalf("want ErrSoldOut, got %v", err)
	}
	if fc.calls != 0 {
		t.Fatalf("sold out add reached the gateway %d times", fc.calls)
	}

	fc = newFakeCarts()
	s = cart.NewStore(fc, fixedStock(4), nil)
	if err := s.AddItem(ctx, "u1", chair, 3); err != nil {
		t.Fatal(err)
	}
	err := s.AddItem(ctx, "u1", chair, 2)
	if !errors.Is(err, cart.ErrStockLimit) || !strings.Contains(err.Error(), "only 4 left") {
		t.Fatalf("want stock limit error, got %v", err)
	}
	if s.Count("u1") != 3 {
		t.Fatalf("rejected add changed the mirror: %d", s.Count("u1"))
	}
}

func TestIncrementAndUpdate_StockCaps(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCarts()
	s := cart.NewStore(fc, fixedStock(2), nil)

	_ = s.AddItem(ctx, "u1", chair, 2)
	lines, _ := s.Lines(ctx, "u1")
	id := lines[0].ID

	if _, err := s.Increment(ctx, "u1", id); !errors.Is(err, cart.ErrStockLimit) {
		t.Fatalf("increment past stock: want ErrStockLimit, got %v", err)
	}
	if _, err := s.UpdateQuantity(ctx, "u1", id, 5); !errors.Is(err, cart.ErrStockLimit) {
		t.Fatalf("update past stock: want ErrStockLimit, got %v", err)
	}
	lines, err := s.Decrement(ctx, "u1", id)
	if err != nil || lines[0].Quantity != 1 {
		t.Fatalf("decrement: %+v err=%v", lines, err)
	}
}

func TestAddItem_ReadsLiveStock(t *testing.T) {
	ctx := context.Background()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	gw := repos.NewGateway(db)

	// the product copy claims stock, the table says none
	if _, err := db.Exec(`UPDATE products SET stock = 0 WHERE id = 'lounge-chair'`); err != nil {
		t.Fatal(err)
	}
	s := cart.NewStore(gw.Carts, gw.Inventory, nil)
	if err := s.AddItem(ctx, "u-alice", chair, 1); !errors.Is(err, cart.ErrSoldOut) {
		t.Fatalf("want ErrSoldOut, got %v", err)
	}
}
