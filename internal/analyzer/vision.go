package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("AI analysis is not configured")

// Vision sends one prompt plus one inlined image and returns the text reply.
type Vision interface {
	Generate(ctx context.Context, prompt string, img Image) (string, error)
}

// Gemini owns the client shared by every model handle it returns.
type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Model(name string) Vision {
	return &geminiModel{name: name, model: g.client.GenerativeModel(name)}
}

func (g *Gemini) Close() error { return g.client.Close() }

type geminiModel struct {
	name  string
	model *genai.GenerativeModel
}

func (m *geminiModel) Generate(ctx context.Context, prompt string, img Image) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(img.Format(), img.Data))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content generated")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%s returned no text", m.name)
	}
	return b.String(), nil
}
