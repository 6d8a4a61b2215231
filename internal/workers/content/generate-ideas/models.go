// internal/workers/content/generate-ideas/models.go
package generateideas

import "linkedin-agent/internal/models"

type Input = models.IdeaRequest

type Output = models.IdeaBatch

// ideaListSchema describes what the prompt asks the model to return.
// Violations are reported, not enforced.
const ideaListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "hook", "angle", "source"],
    "properties": {
      "id": {"type": ["integer", "string"]},
      "title": {"type": "string", "minLength": 1},
      "hook": {"type": "string", "minLength": 1},
      "angle": {"type": "string"},
      "source": {"enum": ["rss_openai", "rss_anthropic", "email_podcast", "web_research"]},
      "source_url": {"type": "string"},
      "source_title": {"type": "string"},
      "estimated_tone": {"enum": ["direkt", "ironisch", "pragmatisch", "thought_leader"]},
      "post_format": {"enum": ["story", "erklärer", "hot_take", "zahlen_analyse", "mini_framework"]}
    }
  }
}`
