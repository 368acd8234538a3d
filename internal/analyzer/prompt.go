package analyzer

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildPrompt writes the interior-designer instruction for one product,
// ending with the strict JSON shape Parse expects.
func BuildPrompt(p ProductDetails) string {
	var b strings.Builder
	b.WriteString("You are an expert interior designer and space analyzer. Analyze this room/space image and determine if the following furniture item would be suitable for this location.\n\n")
	b.WriteString("**Product Details:**\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	fmt.Fprintf(&b, "- Category: %s\n", p.Category)
	fmt.Fprintf(&b, "- Description: %s\n", p.Description)
	if p.Color != "" {
		fmt.Fprintf(&b, "- Color: %s\n", p.Color)
	}
	if p.Material != "" {
		fmt.Fprintf(&b, "- Material: %s\n", p.Material)
	}
	if d := p.Dimensions; d != nil {
		fmt.Fprintf(&b, "- Dimensions: %sW x %sH x %sD cm\n", num(d.Width), num(d.Height), num(d.Depth))
	}
	fmt.Fprintf(&b, "- Price: LKR %s\n", num(p.Price))

	b.WriteString(`
**Analysis Requirements:**
Analyze the space image and provide:

1. **Suitability Score (0-100)**: Rate how well this item fits the space
2. **Is Suitable (Yes/No)**: Based on score > 60
3. **Color Harmony**: Does the item's color match or complement the room's color scheme?
4. **Style Compatibility**: Does the item's style match the room's aesthetic?
5. **Alternative Colors**: Suggest 3 colors that would work better in this space
6. **Recommendations**: Provide 3-5 specific recommendations for placement or alternatives
7. **Detailed Reasoning**: Explain your analysis in 2-3 sentences

Consider:
- Existing color palette of the room
- Current furniture style and aesthetic
- Room lighting and ambiance
- Space dimensions and layout
- Overall design cohesion

**IMPORTANT: Respond ONLY with valid JSON in this exact format (no markdown, no code blocks):**
{
  "suitable": true or false,
  "suitabilityScore": number between 0-100,
  "colorMatch": "excellent/good/fair/poor",
  "styleMatch": "excellent/good/fair/poor",
  "recommendations": ["recommendation 1", "recommendation 2", "recommendation 3"],
  "alternativeColors": ["color1", "color2", "color3"],
  "reasoning": "Your detailed explanation here"
}
`)
	return b.String()
}

// ColorPrompt asks for five furniture colors for a room type.
func ColorPrompt(roomType string) string {
	if strings.TrimSpace(roomType) == "" {
		roomType = "general"
	}
	return fmt.Sprintf(`Analyze this %s space image and suggest 5 furniture colors that would harmonize well with the existing decor.

Respond ONLY with valid JSON array (no markdown):
["color1", "color2", "color3", "color4", "color5"]
`, roomType)
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
