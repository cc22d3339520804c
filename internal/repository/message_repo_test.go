package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

func TestMessageRepositoryListByAttempt(t *testing.T) {
	db := setupSubmissionTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Message{}))
	repo := NewMessageRepository(db)
	ctx := context.Background()

	score := 2
	require.NoError(t, repo.Create(ctx, &models.Message{AttemptID: 1, Body: "please regrade", Originator: "student-1", Recipient: "staff", MessageType: "regrade_request"}))
	require.NoError(t, repo.Create(ctx, &models.Message{AttemptID: 1, Body: "score stands", Originator: "staff", Recipient: "student-1", Score: &score}))
	require.NoError(t, repo.Create(ctx, &models.Message{AttemptID: 2, Body: "unrelated", Originator: "staff", Recipient: "student-2"}))

	messages, err := repo.ListByAttempt(ctx, 1)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "please regrade", messages[0].Body)
	require.NotNil(t, messages[1].Score)
}
