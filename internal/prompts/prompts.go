// internal/prompts/prompts.go

// Package prompts holds the German system prompts for the content agents.
// The markdown files are edited far more often than the Go code around them.
package prompts

import (
	_ "embed"
	"strings"
)

const brandVoicePlaceholder = "{{BRAND_VOICE}}"

var (
	//go:embed brand_voice.md
	brandVoice string

	//go:embed synthesis.md
	synthesis string

	//go:embed ideas.md
	ideasTemplate string

	//go:embed post.md
	postTemplate string
)

// BrandVoice describes the autofyn writing style shared by both agents.
func BrandVoice() string { return brandVoice }

// Synthesis is the prompt for merging pre-fetched feed items into topics.
func Synthesis() string { return synthesis }

// IdeaGeneration is the idea agent's system prompt with the brand voice inlined.
func IdeaGeneration() string { return withBrandVoice(ideasTemplate) }

// PostGeneration is the post agent's system prompt with the brand voice inlined.
func PostGeneration() string { return withBrandVoice(postTemplate) }

func withBrandVoice(tmpl string) string {
	return strings.Replace(tmpl, brandVoicePlaceholder, brandVoice, 1)
}
