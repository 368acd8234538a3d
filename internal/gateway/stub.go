package gateway

import (
	"context"

	"roomfit/internal/domain"
)

// stub answers every read with an empty result and every write with
// ErrNotConfigured.
type stub struct{}

func NewStub() Gateway {
	s := stub{}
	return Gateway{Products: s, Carts: s, Orders: s, Inventory: s, Profiles: s, Users: s}
}

func (stub) ListProducts(context.Context, ProductFilter) ([]domain.Product, error) {
	return []domain.Product{}, nil
}
func (stub) GetProduct(context.Context, string) (domain.Product, error) {
	return domain.Product{}, ErrNotFound
}
func (stub) CreateProduct(context.Context, *domain.Product) error { return ErrNotConfigured }
func (stub) UpdateProduct(context.Context, domain.Product) error  { return ErrNotConfigured }
func (stub) DeleteProduct(context.Context, string) error          { return ErrNotConfigured }

func (stub) UpsertCartItem(context.Context, string, string, int) error { return ErrNotConfigured }
func (stub) CartLines(context.Context, string) ([]domain.CartLine, error) {
	return []domain.CartLine{}, nil
}
func (stub) SetCartQuantity(context.Context, string, string, int) error { return ErrNotConfigured }
func (stub) DeleteCartItem(context.Context, string, string) error       { return ErrNotConfigured }
func (stub) ClearCart(context.Context, string) error                    { return ErrNotConfigured }

func (stub) CreateOrder(context.Context, domain.Order, []domain.OrderItem) error {
	return ErrNotConfigured
}
func (stub) OrdersByUser(context.Context, string) ([]domain.Order, error) {
	return []domain.Order{}, nil
}
func (stub) OrderItems(context.Context, string) ([]domain.OrderItem, error) {
	return []domain.OrderItem{}, nil
}

func (stub) Stock(context.Context, string) (int, error) { return 0, ErrNotConfigured }

func (stub) GetProfile(context.Context, string) (domain.Profile, error) {
	return domain.Profile{}, ErrNotConfigured
}
func (stub) UpdateProfile(context.Context, domain.Profile) error { return ErrNotConfigured }

func (stub) CreateUser(context.Context, domain.User, string) error { return ErrNotConfigured }
func (stub) UserByEmail(context.Context, string) (*domain.User, error) {
	return nil, ErrNotConfigured
}
func (stub) UserByID(context.Context, string) (*domain.User, error) { return nil, ErrNotConfigured }
func (stub) SetPasswordHash(context.Context, string, string) error  { return ErrNotConfigured }
func (stub) CreateSession(context.Context, string, string, bool) error {
	return ErrNotConfigured
}
func (stub) SessionUser(context.Context, string) (*domain.User, error) {
	return nil, ErrNotConfigured
}
func (stub) ConsumeRecoverySession(context.Context, string) (bool, error) {
	return false, ErrNotConfigured
}
func (stub) DeleteSession(context.Context, string) error { return nil }
