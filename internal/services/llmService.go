package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"storefront/internal/models"
)

// DescriptionGenerator writes marketing copy for a product.
type DescriptionGenerator interface {
	GenerateDescription(ctx context.Context, product *models.Product) (string, error)
}

type llmService struct {
	model llms.Model
}

// NewLLMService returns nil when no API key is configured; callers treat a
// nil generator as the feature being switched off.
func NewLLMService(ctx context.Context, apiKey, model string) (DescriptionGenerator, error) {
	if apiKey == "" {
		return nil, nil
	}
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI LLM: %w", err)
	}
	return &llmService{model: llm}, nil
}

func descriptionPrompt(p *models.Product) string {
	return fmt.Sprintf(
		"You write product descriptions for an online store. Write two short paragraphs in plain text, "+
			"no headings and no markdown, describing the product for a shopper.\n\n"+
			"Title: %s\nBrand: %s\nCategory: %s\nColors: %s\nTags: %s\nCurrent description: %s",
		p.Title, p.Brand, p.Category, strings.Join(p.Colors, ", "), strings.Join(p.Tags, ", "), p.Description,
	)
}

func (s *llmService) GenerateDescription(ctx context.Context, product *models.Product) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, s.model, descriptionPrompt(product))
	if err != nil {
		return "", fmt.Errorf("failed to generate description from LLM: %w", err)
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn().Str("product_id", product.ID.Hex()).Msg("LLM returned an empty description")
		return "", fmt.Errorf("LLM returned an empty description")
	}
	return text, nil
}
