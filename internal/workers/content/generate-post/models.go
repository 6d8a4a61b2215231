// internal/workers/content/generate-post/models.go
package generatepost

import "linkedin-agent/internal/models"

// Input carries the idea picked in Slack. Zeebe jobs use the same shape.
type Input struct {
	Idea *models.Idea `json:"idea"`
}

type Output = models.PostResult
