// Package prompt contains the generative backends that turn a category
// plus form inputs into a polished prompt. The metering core consumes
// them through the Generator interface and never sees provider details.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"proai/internal/domain"
)

// Generator produces prompt text and keyword suggestions. Generate fails
// with the upstream error on any provider problem; success yields
// non-empty text.
type Generator interface {
	Generate(ctx context.Context, category domain.Category, req domain.PromptRequest) (string, error)
	Keywords(ctx context.Context, useCase string) ([]string, error)
}

// StaticGenerator assembles prompts locally without any upstream call.
// It backs development environments that have no API key configured.
type StaticGenerator struct{}

// NewStaticGenerator returns the offline generator.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

func (s *StaticGenerator) Generate(ctx context.Context, category domain.Category, req domain.PromptRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := cases.Title(language.Und)
	style := coalesce(req.Style, "Professional")
	platform := coalesce(req.Platform, "Any")
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Act as a senior %s prompt engineer.", strings.ToLower(category.Name))
	fmt.Fprintf(sb, " Task: %s.", coalesce(req.UseCase, "craft a reusable prompt"))
	fmt.Fprintf(sb, " Context: %s industry.", c.String(coalesce(req.Industry, "general")))
	fmt.Fprintf(sb, " Tone and style: %s.", style)
	fmt.Fprintf(sb, " Target platform: %s.", platform)
	if strings.TrimSpace(req.Constraints) != "" {
		fmt.Fprintf(sb, " Constraints: %s.", strings.TrimSpace(req.Constraints))
	}
	sb.WriteString(" Structure the output so it can be pasted directly into the target platform.")
	return sb.String(), nil
}

func (s *StaticGenerator) Keywords(ctx context.Context, useCase string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := strings.Fields(useCase)
	seen := make(map[string]struct{})
	var keywords []string
	for _, word := range words {
		word = strings.Trim(strings.ToLower(word), ".,;:!?\"'")
		if len(word) < 4 {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == 7 {
			break
		}
	}
	return keywords, nil
}

var _ Generator = (*StaticGenerator)(nil)
