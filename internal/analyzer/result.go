package analyzer

import (
	"strings"

	"roomfit/internal/domain"
)

// Level is the ordinal match vocabulary used for color and style.
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelFair      Level = "fair"
	LevelPoor      Level = "poor"
	LevelUnknown   Level = "unknown"
)

// NormalizeLevel folds case and maps anything outside the vocabulary to unknown.
func NormalizeLevel(s string) Level {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelExcellent, LevelGood, LevelFair, LevelPoor:
		return l
	}
	return LevelUnknown
}

// Result is one suitability judgment for an (image, product) pair.
type Result struct {
	Suitable          bool     `json:"suitable"`
	SuitabilityScore  int      `json:"suitabilityScore"`
	ColorMatch        string   `json:"colorMatch"`
	StyleMatch        string   `json:"styleMatch"`
	Recommendations   []string `json:"recommendations"`
	AlternativeColors []string `json:"alternativeColors"`
	Reasoning         string   `json:"reasoning"`
}

func (r Result) ColorLevel() Level { return NormalizeLevel(r.ColorMatch) }
func (r Result) StyleLevel() Level { return NormalizeLevel(r.StyleMatch) }

// ProductDetails are the product attributes the prompt describes.
type ProductDetails struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Color       string             `json:"color,omitempty"`
	Material    string             `json:"material,omitempty"`
	Dimensions  *domain.Dimensions `json:"dimensions,omitempty"`
	Price       float64            `json:"price"`
}

func DetailsFrom(p domain.Product) ProductDetails {
	return ProductDetails{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Color:       p.Color.String,
		Material:    p.Material.String,
		Dimensions:  p.Dimensions(),
		Price:       p.Price,
	}
}
