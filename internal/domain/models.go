package domain

import "database/sql"

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       float64         `db:"price" json:"price"`
	Category    string          `db:"category" json:"category"`
	Material    sql.NullString  `db:"material" json:"-"`
	Color       sql.NullString  `db:"color" json:"-"`
	Width       sql.NullFloat64 `db:"width" json:"-"`
	Height      sql.NullFloat64 `db:"height" json:"-"`
	Depth       sql.NullFloat64 `db:"depth" json:"-"`
	ImageURL    string          `db:"image_url" json:"image_url"`
	ModelURL    string          `db:"model_url" json:"model_url"`
	Stock       int             `db:"stock" json:"stock"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

// Dimensions is nil unless all three measurements are present.
func (p Product) Dimensions() *Dimensions {
	if !p.Width.Valid || !p.Height.Valid || !p.Depth.Valid {
		return nil
	}
	return &Dimensions{Width: p.Width.Float64, Height: p.Height.Float64, Depth: p.Depth.Float64}
}

func (p *Product) SetDimensions(d *Dimensions) {
	if d == nil {
		p.Width, p.Height, p.Depth = sql.NullFloat64{}, sql.NullFloat64{}, sql.NullFloat64{}
		return
	}
	p.Width = sql.NullFloat64{Float64: d.Width, Valid: true}
	p.Height = sql.NullFloat64{Float64: d.Height, Valid: true}
	p.Depth = sql.NullFloat64{Float64: d.Depth, Valid: true}
}

// ProductView is the wire shape of a product.
type ProductView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Category    string      `json:"category"`
	Material    string      `json:"material,omitempty"`
	Color       string      `json:"color,omitempty"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	ModelURL    string      `json:"model_url,omitempty"`
	Stock       int         `json:"stock"`
	CreatedAt   string      `json:"created_at,omitempty"`
	UpdatedAt   string      `json:"updated_at,omitempty"`
}

func (p Product) View() ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Material:    p.Material.String,
		Color:       p.Color.String,
		Dimensions:  p.Dimensions(),
		ImageURL:    p.ImageURL,
		ModelURL:    p.ModelURL,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type CartItem struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// CartLine is a cart row joined with the product fields the cart screen shows.
type CartLine struct {
	ID        string  `db:"id" json:"id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Name      string  `db:"name" json:"name"`
	Price     float64 `db:"price" json:"price"`
	ImageURL  string  `db:"image_url" json:"image_url"`
	Stock     int     `db:"stock" json:"stock"`
}

func (l CartLine) Subtotal() float64 { return l.Price * float64(l.Quantity) }

type Order struct {
	ID          string  `db:"id" json:"id"`
	UserID      string  `db:"user_id" json:"user_id"`
	TotalAmount float64 `db:"total_amount" json:"total_amount"`
	Status      string  `db:"status" json:"status"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
}

type OrderItem struct {
	OrderID   string  `db:"order_id" json:"order_id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Price     float64 `db:"price" json:"price"`
}

type Profile struct {
	ID         string `db:"id" json:"id"`
	FullName   string `db:"full_name" json:"full_name"`
	Phone      string `db:"phone" json:"phone"`
	Address    string `db:"address" json:"address"`
	City       string `db:"city" json:"city"`
	Country    string `db:"country" json:"country"`
	PostalCode string `db:"postal_code" json:"postal_code"`
	IsAdmin    bool   `db:"is_admin" json:"is_admin"`
	UpdatedAt  string `db:"updated_at" json:"updated_at"`
}
