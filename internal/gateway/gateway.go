// Package gateway is the typed facade over the backing data service. The
// HTTP layer, services and the cart store only see these interfaces; the
// root composition decides whether the sqlite repos or the stub serve them.
package gateway

import (
	"context"
	"errors"

	"roomfit/internal/domain"
)

var (
	ErrNotConfigured = errors.New("backend not configured")
	ErrNotFound      = errors.New("not found")
	ErrOutOfStock    = errors.New("insufficient stock")
)

type ProductFilter struct {
	Query    string
	Category string
	Limit    int
}

type Products interface {
	ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type Carts interface {
	// UpsertCartItem adds delta to the (user, product) row, creating it when absent.
	UpsertCartItem(ctx context.Context, userID, productID string, delta int) error
	CartLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	SetCartQuantity(ctx context.Context, userID, itemID string, qty int) error
	DeleteCartItem(ctx context.Context, userID, itemID string) error
	ClearCart(ctx context.Context, userID string) error
}

type Orders interface {
	CreateOrder(ctx context.Context, o domain.Order, items []domain.OrderItem) error
	OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	OrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
}

// Inventory reads live stock, bypassing any cached product copy.
type Inventory interface {
	Stock(ctx context.Context, productID string) (int, error)
}

type Profiles interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	UpdateProfile(ctx context.Context, p domain.Profile) error
}

type Users interface {
	CreateUser(ctx context.Context, u domain.User, fullName string) error
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id string) (*domain.User, error)
	SetPasswordHash(ctx context.Context, userID, hash string) error

	CreateSession(ctx context.Context, sid, userID string, recovery bool) error
	// SessionUser resolves a live session. Recovery sessions only resolve
	// after they have been consumed.
	SessionUser(ctx context.Context, sid string) (*domain.User, error)
	// ConsumeRecoverySession flips an unconsumed recovery session to
	// consumed and reports whether this call did it.
	ConsumeRecoverySession(ctx context.Context, sid string) (bool, error)
	DeleteSession(ctx context.Context, sid string) error
}

type Gateway struct {
	Products  Products
	Carts     Carts
	Orders    Orders
	Inventory Inventory
	Profiles  Profiles
	Users     Users
}
