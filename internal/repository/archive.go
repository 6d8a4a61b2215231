// internal/repository/archive.go
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"linkedin-agent/internal/common/database"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/models"

	"github.com/google/uuid"
)

// ArchiveRepository keeps every idea batch and finished post in Postgres.
// Schema: migrations/001_content_archive.sql.
type ArchiveRepository struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewArchiveRepository(db *database.PostgresClient, log logger.Logger) *ArchiveRepository {
	return &ArchiveRepository{
		db:     db,
		logger: log.With(map[string]interface{}{"component": "archive"}),
	}
}

// SaveIdeaBatch stores a batch and returns its id.
func (r *ArchiveRepository) SaveIdeaBatch(ctx context.Context, batch *models.IdeaBatch) (string, error) {
	ideasJSON, err := json.Marshal(batch.Ideas)
	if err != nil {
		return "", fmt.Errorf("marshal ideas: %w", err)
	}

	generatedAt, err := time.Parse(time.RFC3339, batch.GeneratedAt)
	if err != nil {
		generatedAt = time.Now().UTC()
	}

	id := uuid.New().String()
	_, err = r.db.Exec(ctx, `
		INSERT INTO idea_batches (id, generated_at, model, idea_count, ideas)
		VALUES ($1, $2, $3, $4, $5)`,
		id, generatedAt, batch.Model, len(batch.Ideas), ideasJSON,
	)
	if err != nil {
		return "", fmt.Errorf("insert idea batch: %w", err)
	}

	r.logger.Debug("idea batch archived", map[string]interface{}{
		"batchId": id,
		"ideas":   len(batch.Ideas),
	})
	return id, nil
}

// SavePost stores a finished post together with the idea it was written for.
func (r *ArchiveRepository) SavePost(ctx context.Context, idea *models.Idea, result *models.PostResult) (string, error) {
	ideaJSON, err := json.Marshal(idea)
	if err != nil {
		return "", fmt.Errorf("marshal idea: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.Exec(ctx, `
		INSERT INTO generated_posts (id, idea_id, idea_title, idea, post, word_count)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, idea.ID.String(), result.IdeaTitle, ideaJSON, result.Post, result.WordCount,
	)
	if err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}

	r.logger.Debug("post archived", map[string]interface{}{
		"postId": id,
		"ideaId": idea.ID.String(),
	})
	return id, nil
}
