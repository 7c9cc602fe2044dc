// Package alttext generates image alt text through Google Gemini.
package alttext

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// systemPrompt is the fixed model contract: one sentence, at most 125
// characters, no "Image of" style prefixes, with the two literal
// special-case outputs.
const systemPrompt = `
Task: Create alt text for the provided image.

Strict Requirements:
1. EXACTLY ONE SENTENCE - No periods except at the end
2. Maximum 125 characters total
3. Factual description only
4. Never start with "Image of", "Photo of", "Picture of", etc.
5. Special cases:
   - Purely decorative image → Output: []
   - Cannot determine content → Output: [unclear image]

Format: Single complete sentence ending with one period.
`

// Generator produces alt text for an image reachable at a URL.
type Generator interface {
	Generate(ctx context.Context, imageURL, mimeType string) (string, error)
}

// GeminiGenerator implements Generator against the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGemini(apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, imageURL, mimeType string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: "Generate alt text for this image"},
				{FileData: &genai.FileData{
					FileURI:  imageURL,
					MIMEType: mimeType,
				}},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
			Role:  "user",
		},
		// Alt text needs no reasoning pass; keep latency and cost down.
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(0)),
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini generation failed: %w", err)
	}

	return parseResponse(resp)
}

func parseResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			text += part.Text
		}
	}

	if text == "" {
		return "", fmt.Errorf("no text in Gemini response")
	}
	return text, nil
}
