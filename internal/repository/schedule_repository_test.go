package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danarifka/studyplan-api/internal/models"
)

func scheduleColumns() []string {
	return []string{"id", "user_id", "title", "description", "start_date", "end_date", "feasible", "total_hours",
		"available_hours", "efficiency", "items", "goals_covered", "generated_at", "created_at"}
}

func TestScheduleRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows(scheduleColumns()).
		AddRow("sched-1", "user-1", "Week Plan", "desc", "2026-09-07", "2026-09-13", true, 5.0,
			8.0, 62.5, []byte(`[]`), []byte(`["Learn Go"]`), time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, user_id, title, description, start_date, end_date, feasible, total_hours").
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.ListByUser(context.Background(), "user-1", 1, 20)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.True(t, records[0].Feasible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.ScheduleRecord{
		UserID:       "user-1",
		Title:        "Week Plan",
		Feasible:     true,
		Items:        types.JSONText(`[]`),
		GoalsCovered: types.JSONText(`[]`),
		GeneratedAt:  time.Now().UTC(),
	}
	err := repo.Create(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "sched-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
