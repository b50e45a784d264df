package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
)

// Client wraps the Gemini API for deal field extraction.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. Returns a nil client if no API key is
// provided; callers degrade gracefully and rely on page and text extraction.
func NewClient(ctx context.Context, apiKey, modelID string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{client: client, model: modelID}, nil
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "Concise product name, max 100 characters. No prices, no emoji, no store name.",
			},
			"price": {
				Type:        genai.TypeString,
				Description: "Discounted price as a plain number with dot decimal separator, e.g. \"1299.90\". Empty string if unknown.",
			},
			"original_price": {
				Type:        genai.TypeString,
				Description: "Pre-discount price as a plain number with dot decimal separator. Empty string if unknown.",
			},
			"store": {
				Type:        genai.TypeString,
				Description: "Store or marketplace name, e.g. \"Trendyol\". Empty string if unknown.",
			},
			"category": {
				Type:        genai.TypeString,
				Description: "One of the allowed category slugs.",
				Enum:        categoryEnum(),
			},
		},
		Required: []string{"title", "price", "original_price", "store", "category"},
	}
}

func categoryEnum() []string {
	enum := make([]string, 0, len(models.AllCategories))
	for _, c := range models.AllCategories {
		enum = append(enum, string(c))
	}
	return enum
}

// ExtractDeal asks the model to pull structured deal fields from a channel
// message, optionally with an attached product photo. A nil client returns
// empty candidates without error.
func (c *Client) ExtractDeal(ctx context.Context, messageText string, image []byte, imageMIME string) (models.Candidates, error) {
	cand := models.Candidates{Source: models.SourceAI}
	if c == nil || c.client == nil {
		return cand, nil
	}

	prompt := fmt.Sprintf(`Analyze this shopping deal message from a Turkish deal-sharing channel:

"""
%s
"""

Extract:
1. title: a clean product name (max 100 characters). Drop prices, emoji, coupon codes and channel tags.
2. price: the discounted price the buyer pays. Turkish formatting uses dot for thousands and comma for decimals ("1.299,90 TL" means 1299.90). Output with a dot decimal separator.
3. original_price: the pre-discount price if the message states one, otherwise empty.
4. store: the store the deal is from, if identifiable.
5. category: the best matching category slug from the allowed list.

Output JSON adhering to the schema.`, messageText)

	parts := []*genai.Part{{Text: prompt}}
	if len(image) > 0 && imageMIME != "" {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: imageMIME, Data: image},
		})
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: parts}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0.1),
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema(),
		})
	if err != nil {
		return cand, fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return cand, fmt.Errorf("no text part in response")
	}

	result, err := decodeResult(text)
	if err != nil {
		return cand, fmt.Errorf("failed to parse gemini response: %w", err)
	}

	cand.Title = result.Title
	cand.Price = result.Price
	cand.OriginalPrice = result.OriginalPrice
	cand.Store = result.Store
	cand.Category = result.Category
	return cand, nil
}
