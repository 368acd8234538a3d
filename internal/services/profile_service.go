package services

import (
	"context"
	"strings"

	"roomfit/internal/domain"
	"roomfit/internal/gateway"
)

type ProfileService struct {
	Profiles gateway.Profiles
}

func NewProfileService(p gateway.Profiles) *ProfileService { return &ProfileService{Profiles: p} }

type ProfileInput struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

func (s *ProfileService) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.Profiles.GetProfile(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (domain.Profile, error) {
	p, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	p.FullName = strings.TrimSpace(in.FullName)
	p.Phone = strings.TrimSpace(in.Phone)
	p.Address = strings.TrimSpace(in.Address)
	p.City = strings.TrimSpace(in.City)
	p.Country = strings.TrimSpace(in.Country)
	p.PostalCode = strings.TrimSpace(in.PostalCode)
	if err := s.Profiles.UpdateProfile(ctx, p); err != nil {
		return domain.Profile{}, err
	}
	return s.Profiles.GetProfile(ctx, userID)
}
