package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"roomfit/internal/domain"
	"roomfit/internal/gateway"
	"roomfit/internal/validate"
)

var (
	ErrNotAdmin       = errors.New("You do not have admin privileges")
	ErrInvalidProduct = errors.New("invalid product")
)

type CatalogService struct {
	Prods    gateway.Products
	Profiles gateway.Profiles
}

func NewCatalogService(prods gateway.Products, profiles gateway.Profiles) *CatalogService {
	return &CatalogService{Prods: prods, Profiles: profiles}
}

func (s *CatalogService) List(ctx context.Context, q, category string) ([]domain.Product, error) {
	return s.Prods.ListProducts(ctx, gateway.ProductFilter{Query: q, Category: category})
}

func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.GetProduct(ctx, id)
}

// IsAdmin reads the profile flag; a missing profile is not an admin.
func (s *CatalogService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	p, err := s.Profiles.GetProfile(ctx, userID)
	if errors.Is(err, gateway.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsAdmin, nil
}

// ProductInput is the admin form / JSON body for creating or editing a product.
type ProductInput struct {
	Name        string             `json:"name" form:"name"`
	Description string             `json:"description" form:"description"`
	Price       float64            `json:"price" form:"price"`
	Category    string             `json:"category" form:"category"`
	Material    string             `json:"material" form:"material"`
	Color       string             `json:"color" form:"color"`
	Dimensions  *domain.Dimensions `json:"dimensions"`
	ImageURL    string             `json:"image_url" form:"image_url"`
	ModelURL    string             `json:"model_url" form:"model_url"`
	Stock       int                `json:"stock" form:"stock"`
}

func (in ProductInput) Validate() error {
	if _, ok := validate.Name(in.Name); !ok {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if !validate.Price(in.Price) {
		return fmt.Errorf("%w: price must be zero or more", ErrInvalidProduct)
	}
	if !validate.Stock(in.Stock) {
		return fmt.Errorf("%w: stock must be zero or more", ErrInvalidProduct)
	}
	if d := in.Dimensions; d != nil && (d.Width < 0 || d.Height < 0 || d.Depth < 0) {
		return fmt.Errorf("%w: dimensions must be zero or more", ErrInvalidProduct)
	}
	return nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price
	p.Category = strings.TrimSpace(in.Category)
	p.Material = nullable(in.Material)
	p.Color = nullable(in.Color)
	p.SetDimensions(in.Dimensions)
	p.ImageURL = strings.TrimSpace(in.ImageURL)
	p.ModelURL = strings.TrimSpace(in.ModelURL)
	p.Stock = in.Stock
}

func (s *CatalogService) requireAdmin(ctx context.Context, userID string) error {
	ok, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}

func (s *CatalogService) Create(ctx context.Context, userID string, in ProductInput) (domain.Product, error) {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return domain.Product{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	var p domain.Product
	in.apply(&p)
	if err := s.Prods.CreateProduct(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, userID, id string, in ProductInput) (domain.Product, error) {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return domain.Product{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	p, err := s.Prods.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	in.apply(&p)
	if err := s.Prods.UpdateProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, userID, id string) error {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return err
	}
	return s.Prods.DeleteProduct(ctx, id)
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
