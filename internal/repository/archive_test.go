// internal/repository/archive_test.go
package repository

import (
	"context"
	"errors"
	"testing"

	"linkedin-agent/internal/common/database"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRepository(t *testing.T) (*ArchiveRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewArchiveRepository(database.NewPostgresFromDB(db), logger.NewTestLogger(t)), mock
}

func TestSaveIdeaBatch(t *testing.T) {
	repo, mock := createTestRepository(t)

	batch := &models.IdeaBatch{
		Status:      models.StatusSuccess,
		Ideas:       []models.Idea{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}},
		GeneratedAt: "2026-02-25T09:00:00+01:00",
		Model:       "claude-sonnet-4-6",
	}

	mock.ExpectExec("INSERT INTO idea_batches").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "claude-sonnet-4-6", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.SaveIdeaBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIdeaBatch_InsertFails(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectExec("INSERT INTO idea_batches").WillReturnError(errors.New("connection refused"))

	_, err := repo.SaveIdeaBatch(context.Background(), &models.IdeaBatch{GeneratedAt: "not a date"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert idea batch")
}

func TestSavePost(t *testing.T) {
	repo, mock := createTestRepository(t)

	idea := &models.Idea{ID: "3", Title: "ERP"}
	result := &models.PostResult{Post: "Text", IdeaTitle: "ERP", WordCount: 1}

	mock.ExpectExec("INSERT INTO generated_posts").
		WithArgs(sqlmock.AnyArg(), "3", "ERP", sqlmock.AnyArg(), "Text", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.SavePost(context.Background(), idea, result)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
