package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryCreateVersion(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_versions")).
		WithArgs(sqlmock.AnyArg(), "term-1", "Draft A", string(models.TimetableTypeLesson), string(models.TimetableVersionStatusDraft), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.TimetableVersion{
		TermID: "term-1",
		Name:   "Draft A",
		Type:   models.TimetableTypeLesson,
		Status: models.TimetableVersionStatusDraft,
	}
	err := repo.CreateVersion(context.Background(), payload)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindVersionByIDNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, name, type, status, published_at, created_at, updated_at FROM timetable_versions WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindVersionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryMarkPublished(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_versions SET status = $1, published_at = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(string(models.TimetableVersionStatusPublished), at, at, "ver-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.MarkPublished(context.Background(), nil, "ver-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryMarkPublishedNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_versions SET status = $1, published_at = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(string(models.TimetableVersionStatusPublished), at, at, "ver-1").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.MarkPublished(context.Background(), nil, "ver-1", at)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryArchivePublishedSiblings(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_versions SET status = $1, updated_at = $2 WHERE term_id = $3 AND type = $4 AND status = $5 AND id <> $6")).
		WithArgs(string(models.TimetableVersionStatusArchived), sqlmock.AnyArg(), "term-1", string(models.TimetableTypeLesson), string(models.TimetableVersionStatusPublished), "ver-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ArchivePublishedSiblings(context.Background(), nil, "term-1", models.TimetableTypeLesson, "ver-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteLessonNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE id = $1")).
		WithArgs("lesson-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteLesson(context.Background(), "lesson-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListSlotOccupancy(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"slot_id", "teacher_id", "class_id", "venue_id"}).
		AddRow("slot-1", "teacher-1", "class-1", "venue-1").
		AddRow("slot-1", "teacher-2", "class-2", nil)
	mock.ExpectQuery("SELECT l.slot_id, l.teacher_id, l.class_id, l.venue_id").
		WithArgs("slot-1", "term-1", string(models.TimetableVersionStatusPublished), "ver-1").
		WillReturnRows(rows)

	occupancy, err := repo.ListSlotOccupancy(context.Background(), "term-1", "slot-1", "ver-1")
	require.NoError(t, err)
	assert.Len(t, occupancy, 2)
	assert.Nil(t, occupancy[1].VenueID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCountByTermAndName(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_versions WHERE term_id = $1 AND name = $2")).
		WithArgs("term-1", "Draft A").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountByTermAndName(context.Background(), "term-1", "Draft A")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
