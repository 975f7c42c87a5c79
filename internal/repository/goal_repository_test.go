package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danarifka/studyplan-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func goalColumns() []string {
	return []string{"id", "user_id", "title", "description", "difficulty_level", "target_hours", "deadline", "created_at", "updated_at"}
}

func TestGoalRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)

	rows := sqlmock.NewRows(goalColumns()).
		AddRow("goal-1", "user-1", "Learn Go", nil, 2, 10, "2026-10-01", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, user_id, title, description, difficulty_level, target_hours, deadline, created_at, updated_at").
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM learning_goals WHERE 1=1 AND user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	goals, total, err := repo.List(context.Background(), models.GoalFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, goals, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Learn Go", goals[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)

	mock.ExpectExec("INSERT INTO learning_goals").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	goal := &models.LearningGoal{UserID: "user-1", Title: "Learn Go", DifficultyLevel: 2, TargetHours: 10}
	err := repo.Create(context.Background(), goal)
	require.NoError(t, err)
	assert.NotEmpty(t, goal.ID)
	assert.False(t, goal.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)

	rows := sqlmock.NewRows(goalColumns()).
		AddRow("goal-1", "user-1", "Learn Go", "desc", 2, 10, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, user_id, title, description, difficulty_level, target_hours, deadline, created_at, updated_at").
		WithArgs("goal-1").
		WillReturnRows(rows)

	goal, err := repo.FindByID(context.Background(), "goal-1")
	require.NoError(t, err)
	assert.Equal(t, "goal-1", goal.ID)
	assert.Nil(t, goal.Deadline)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM learning_goals WHERE id = $1")).
		WithArgs("goal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "goal-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
