package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"roomfit/internal/cart"
	"roomfit/internal/domain"
	"roomfit/internal/gateway"
)

var ErrCartEmpty = errors.New("Add items to cart before checkout")

const StatusPending = "pending"

type OrderService struct {
	Cart   *cart.Store
	Orders gateway.Orders
}

func NewOrderService(c *cart.Store, orders gateway.Orders) *OrderService {
	return &OrderService{Cart: c, Orders: orders}
}

// Checkout turns the user's server cart into a pending order priced at the
// current product prices, then empties the cart.
func (s *OrderService) Checkout(ctx context.Context, userID string) (domain.Order, []domain.OrderItem, error) {
	lines, err := s.Cart.Lines(ctx, userID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if len(lines) == 0 {
		return domain.Order{}, nil, ErrCartEmpty
	}

	o := domain.Order{ID: uuid.NewString(), UserID: userID, Status: StatusPending}
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		o.TotalAmount += l.Subtotal()
		items = append(items, domain.OrderItem{
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}

	if err := s.Orders.CreateOrder(ctx, o, items); err != nil {
		return domain.Order{}, nil, err
	}
	if err := s.Cart.Clear(ctx, userID); err != nil {
		return o, items, err
	}
	return o, items, nil
}

// OrderDetail is an order with its line items.
type OrderDetail struct {
	domain.Order
	Items []domain.OrderItem `json:"items"`
}

// History lists the user's orders, newest first, with their line items.
func (s *OrderService) History(ctx context.Context, userID string) ([]OrderDetail, error) {
	orders, err := s.Orders.OrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]OrderDetail, 0, len(orders))
	for _, o := range orders {
		items, err := s.Orders.OrderItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, OrderDetail{Order: o, Items: items})
	}
	return out, nil
}
