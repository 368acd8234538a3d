package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrMalformed = errors.New("malformed analysis response")

// StripFences removes a surrounding ``` or ```json fence. Unfenced text is
// only trimmed.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line
		if tag := strings.TrimSpace(s[:i]); tag == "" || !strings.ContainsAny(tag, "{[") {
			s = s[i+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Parse decodes a model response. Every key must be present and the score
// must lie in [0,100].
func Parse(text string) (Result, error) {
	var raw struct {
		Suitable          *bool     `json:"suitable"`
		SuitabilityScore  *float64  `json:"suitabilityScore"`
		ColorMatch        *string   `json:"colorMatch"`
		StyleMatch        *string   `json:"styleMatch"`
		Recommendations   *[]string `json:"recommendations"`
		AlternativeColors *[]string `json:"alternativeColors"`
		Reasoning         *string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(StripFences(text)), &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var missing []string
	if raw.Suitable == nil {
		missing = append(missing, "suitable")
	}
	if raw.SuitabilityScore == nil {
		missing = append(missing, "suitabilityScore")
	}
	if raw.ColorMatch == nil {
		missing = append(missing, "colorMatch")
	}
	if raw.StyleMatch == nil {
		missing = append(missing, "styleMatch")
	}
	if raw.Recommendations == nil {
		missing = append(missing, "recommendations")
	}
	if raw.AlternativeColors == nil {
		missing = append(missing, "alternativeColors")
	}
	if raw.Reasoning == nil {
		missing = append(missing, "reasoning")
	}
	if len(missing) > 0 {
		return Result{}, fmt.Errorf("%w: missing %s", ErrMalformed, strings.Join(missing, ", "))
	}

	score := *raw.SuitabilityScore
	if math.IsNaN(score) || score < 0 || score > 100 {
		return Result{}, fmt.Errorf("%w: suitabilityScore %v out of range", ErrMalformed, score)
	}

	return Result{
		Suitable:          *raw.Suitable,
		SuitabilityScore:  int(math.Round(score)),
		ColorMatch:        *raw.ColorMatch,
		StyleMatch:        *raw.StyleMatch,
		Recommendations:   *raw.Recommendations,
		AlternativeColors: *raw.AlternativeColors,
		Reasoning:         *raw.Reasoning,
	}, nil
}

// ParseColors decodes the color suggestion array.
func ParseColors(text string) ([]string, error) {
	var colors []string
	if err := json.Unmarshal([]byte(StripFences(text)), &colors); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: no colors", ErrMalformed)
	}
	return colors, nil
}

// Fallback is the neutral result shown when analysis could not complete.
func Fallback(err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Suitable:         true,
		SuitabilityScore: 50,
		ColorMatch:       string(LevelUnknown),
		StyleMatch:       string(LevelUnknown),
		Recommendations: []string{
			"Unable to analyze space due to technical error",
			"Please try again or consult with an interior designer",
			"Consider the room's existing color scheme manually",
		},
		AlternativeColors: []string{"Neutral White", "Warm Beige", "Light Gray"},
		Reasoning:         fmt.Sprintf("Analysis failed: %s. Please ensure you have a clear photo of the space and try again.", msg),
	}
}

func FallbackColors() []string {
	return []string{"White", "Beige", "Gray", "Navy Blue", "Olive Green"}
}
