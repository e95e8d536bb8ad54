// Package catalog supplies the read-only category table and the form
// option lists the workspace offers. The built-in defaults mirror the
// production catalog; a JSON file can override them at startup.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"proai/internal/domain"
)

// Catalog is an ordered, immutable set of prompt categories.
type Catalog struct {
	categories []domain.Category
	byID       map[string]domain.Category
}

func intPtr(n int) *int { return &n }

// Default returns the built-in ProAI category table.
func Default() *Catalog {
	cats := []domain.Category{
		{ID: "text", Name: "Text Prompts", Description: "For writing, coding, reports, emails", CreditCost: 10, DailyLimit: intPtr(5)},
		{ID: "image", Name: "Image Prompts", Description: "For MidJourney, DALL·E, Stable Diffusion", CreditCost: 20, DailyLimit: intPtr(3)},
		{ID: "video", Name: "Video Prompts", Description: "For Runway, Pika, Gen-2", CreditCost: 50, DailyLimit: intPtr(2)},
		{ID: "audio", Name: "Audio Prompts", Description: "For music, voiceover, podcast scripts", CreditCost: 30, DailyLimit: intPtr(3)},
		{ID: "json", Name: "JSON / API Prompts", Description: "For developers, structured output", CreditCost: 10, DailyLimit: intPtr(1)},
		{ID: "custom", Name: "Custom Prompt Architect", Description: "Deep, multi-layered prompts", CreditCost: 100, Premium: true},
	}
	c, err := New(cats)
	if err != nil {
		panic(err) // built-in table is known good
	}
	return c
}

// New validates and indexes the provided categories, preserving order.
func New(categories []domain.Category) (*Catalog, error) {
	byID := make(map[string]domain.Category, len(categories))
	for _, cat := range categories {
		if cat.ID == "" {
			return nil, fmt.Errorf("catalog: category with empty id")
		}
		if cat.CreditCost < 0 {
			return nil, fmt.Errorf("catalog: category %q has negative credit cost", cat.ID)
		}
		if cat.DailyLimit != nil && *cat.DailyLimit < 0 {
			return nil, fmt.Errorf("catalog: category %q has negative daily limit", cat.ID)
		}
		if _, dup := byID[cat.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate category id %q", cat.ID)
		}
		byID[cat.ID] = cat
	}
	return &Catalog{categories: append([]domain.Category(nil), categories...), byID: byID}, nil
}

// Load reads a catalog override from a JSON file. An empty path yields the
// built-in defaults.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var cats []domain.Category
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("catalog: %s defines no categories", path)
	}
	return New(cats)
}

// Categories returns the ordered category list.
func (c *Catalog) Categories() []domain.Category {
	return append([]domain.Category(nil), c.categories...)
}

// ByID looks a category up by identifier.
func (c *Catalog) ByID(id string) (domain.Category, error) {
	cat, ok := c.byID[id]
	if !ok {
		return domain.Category{}, domain.ErrUnknownCategory
	}
	return cat, nil
}

// Form option lists shown in the workspace; read-only like the category
// table.
var (
	Industries = []string{
		"General", "Technology", "Healthcare", "Finance", "Education",
		"Marketing", "Entertainment", "E-commerce", "Gaming", "Photography",
	}
	OutputStyles = []string{
		"Professional", "Casual", "Creative", "Formal", "Technical",
		"Cinematic", "Academic", "Humorous", "Empathetic",
	}
	TargetPlatforms = []string{
		"Any", "ChatGPT (GPT-4)", "Gemini", "MidJourney", "DALL-E 3",
		"Stable Diffusion", "RunwayML", "Pika Labs", "Suno AI",
	}
)
