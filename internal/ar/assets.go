package ar

import "strings"

// Asset is a bundled 3D model path, relative to the static root.
type Asset string

const (
	AssetChair   Asset = "models/chair.glb"
	AssetTable   Asset = "models/table.glb"
	AssetCabinet Asset = "models/cabinet.glb"
)

// AssetChoice is what a native scene loads for a product.
type AssetChoice struct {
	Asset Asset   `json:"asset"`
	Scale float64 `json:"scale"`
	Rule  string  `json:"rule"`
}

type assetRule struct {
	name  string
	match func(lowerName string) bool
	asset Asset
	scale float64
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

// Evaluated top to bottom; the first match wins. Sofas load the table model
// until a sofa asset ships, and office tables use the cabinet model.
var assetRules = []assetRule{
	{"sofa", containsAny("sofa", "couch"), AssetTable, 1.0},
	{"office-table", containsAny("office table"), AssetCabinet, 0.5},
	{"cabinet", containsAny("cabinet", "wardrobe", "shelf"), AssetCabinet, 0.5},
	{"table", containsAny("table", "desk"), AssetTable, 0.8},
	{"chair", containsAny("chair", "stool"), AssetChair, 0.3},
}

var defaultChoice = AssetChoice{Asset: AssetChair, Scale: 0.2, Rule: "default"}

// SelectAsset maps a product name to its native asset and initial uniform
// scale. Every name, including "", resolves to exactly one choice.
func SelectAsset(productName string) AssetChoice {
	n := strings.ToLower(productName)
	for _, r := range assetRules {
		if r.match(n) {
			return AssetChoice{Asset: r.asset, Scale: r.scale, Rule: r.name}
		}
	}
	return defaultChoice
}
