// internal/common/slack/blocks.go
package slack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"linkedin-agent/internal/models"
)

// Block is the subset of Slack Block Kit used by the agent.
type Block struct {
	Type      string       `json:"type"`
	Text      *TextObject  `json:"text,omitempty"`
	Elements  []TextObject `json:"elements,omitempty"`
	Accessory *Button      `json:"accessory,omitempty"`
}

type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type Button struct {
	Type     string     `json:"type"`
	Text     TextObject `json:"text"`
	Value    string     `json:"value"`
	ActionID string     `json:"action_id"`
	Style    string     `json:"style,omitempty"`
}

// ActionPrefix starts the action_id of every "Ausarbeiten" button.
const ActionPrefix = "ausarbeiten_"

var (
	toneEmoji = map[string]string{
		"direkt":         "🎯",
		"ironisch":       "😏",
		"pragmatisch":    "🔧",
		"thought_leader": "💡",
	}
	formatEmoji = map[string]string{
		"story":          "📖",
		"erklärer":       "📚",
		"hot_take":       "🔥",
		"zahlen_analyse": "📊",
		"mini_framework": "🔧",
	}
	sourceLabels = map[string]string{
		models.SourceRSSOpenAI:    "OpenAI Blog",
		models.SourceRSSAnthropic: "Anthropic News",
		models.SourceEmailPodcast: "Startup Insider",
		models.SourceWebResearch:  "Web-Recherche",
	}
)

func header(text string) Block {
	return Block{Type: "header", Text: &TextObject{Type: "plain_text", Text: text, Emoji: true}}
}

func section(mrkdwn string) Block {
	return Block{Type: "section", Text: &TextObject{Type: "mrkdwn", Text: mrkdwn}}
}

func contextLine(mrkdwn string) Block {
	return Block{Type: "context", Elements: []TextObject{{Type: "mrkdwn", Text: mrkdwn}}}
}

func divider() Block { return Block{Type: "divider"} }

// IdeasMessage renders the morning idea list with one button per idea.
func IdeasMessage(ideas []models.Idea, now time.Time) []Block {
	blocks := []Block{
		header("🟣 LinkedIn Post Ideen – " + models.DisplayDate(now)),
		contextLine(fmt.Sprintf("%d Ideen · Klicke *Ausarbeiten* für einen vollständigen Post", len(ideas))),
		divider(),
	}

	for _, idea := range ideas {
		block := section(ideaText(idea))
		block.Accessory = ideaButton(idea)
		blocks = append(blocks, block, divider())
	}
	return blocks
}

func ideaText(idea models.Idea) string {
	tone, ok := toneEmoji[idea.EstimatedTone]
	if !ok {
		tone = "🟣"
	}
	prefix := tone
	if f := formatEmoji[idea.PostFormat]; f != "" {
		prefix = f + " " + tone
	}

	label, ok := sourceLabels[idea.Source]
	if !ok {
		label = idea.Source
	}
	source := "📌 " + label
	if idea.SourceURL != "" {
		source += fmt.Sprintf(" · <%s|Link>", idea.SourceURL)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s. %s*", prefix, ideaID(idea), idea.Title)
	if idea.PostFormat != "" {
		fmt.Fprintf(&b, "  `%s`", idea.PostFormat)
	}
	fmt.Fprintf(&b, "\n> %s\n_%s_\n%s", idea.Hook, idea.Angle, source)
	return b.String()
}

func ideaButton(idea models.Idea) *Button {
	id := ideaID(idea)
	return &Button{
		Type:     "button",
		Text:     TextObject{Type: "plain_text", Text: "Ausarbeiten ✍️", Emoji: true},
		Value:    buttonValue(idea),
		ActionID: ActionPrefix + id,
		Style:    "primary",
	}
}

// buttonValue is echoed back by Slack on click and forwarded to /generate-post.
func buttonValue(idea models.Idea) string {
	if idea.ID == "" {
		idea.ID = "0"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(struct {
		IdeaID models.IdeaID `json:"idea_id"`
		Idea   models.Idea   `json:"idea"`
	}{IdeaID: idea.ID, Idea: idea})
	return strings.TrimSuffix(buf.String(), "\n")
}

func ideaID(idea models.Idea) string {
	if idea.ID == "" {
		return "0"
	}
	return idea.ID.String()
}

// ResultMessage renders a finished post ready to copy into LinkedIn.
func ResultMessage(post, ideaTitle string, wordCount int) []Block {
	if ideaTitle == "" {
		ideaTitle = "?"
	}
	return []Block{
		header("✍️ Dein LinkedIn Post ist fertig!"),
		section(fmt.Sprintf("*Idee:* %s · %d Wörter", ideaTitle, wordCount)),
		divider(),
		section("```\n" + post + "\n```"),
		contextLine("_Kopiere den Text oben und paste ihn direkt in LinkedIn_ 👆"),
	}
}

func ErrorMessage(message string) []Block {
	return []Block{section("❌ " + message)}
}
