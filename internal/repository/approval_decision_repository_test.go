package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-governance/internal/model"
)

func TestApprovalDecisionCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApprovalDecisionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `approval_decisions`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &model.ApprovalDecision{
		ID:          "d1",
		SubjectKind: model.SubjectDocument,
		SubjectID:   "doc-1",
		Department:  "D2COM",
		Decision:    model.DecisionRejected,
		Reviewer:    "an",
		Note:        "tags do not match the brief",
		DecidedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalDecisionLatestMissingReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApprovalDecisionRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `approval_decisions` WHERE subject_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id"}))

	decision, err := repo.LatestForSubject(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Nil(t, decision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryApprovalDecisionsNewestFirst(t *testing.T) {
	repo := NewMemoryApprovalDecisionRepository()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, dept := range []string{"D2COM", "B2B", "D2COM"} {
		require.NoError(t, repo.Create(ctx, &model.ApprovalDecision{
			ID:          string(rune('a' + i)),
			SubjectID:   "s",
			Department:  dept,
			RequestedBy: "linh",
			DecidedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	d2com, err := repo.ListByDepartment(ctx, "D2COM", 10)
	require.NoError(t, err)
	require.Len(t, d2com, 2)
	assert.Equal(t, "c", d2com[0].ID)

	all, err := repo.ListByRequester(ctx, "linh", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"c", "b"}, []string{all[0].ID, all[1].ID})

	latest, err := repo.LatestForSubject(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "c", latest.ID)
}
