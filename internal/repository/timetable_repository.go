package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const lessonColumns = "id, version_id, slot_id, class_id, subject_id, teacher_id, venue_id, created_at"

const versionColumns = "id, term_id, name, type, status, published_at, created_at, updated_at"

const lessonDetailQuery = `
SELECT l.id, l.version_id, l.slot_id, l.class_id, l.subject_id, l.teacher_id, l.venue_id, l.created_at,
       s.day_of_week, s.start_time, s.end_time,
       sub.name AS subject_name, c.name AS class_name, t.full_name AS teacher_name,
       ven.name AS venue_name, v.name AS version_name
FROM lessons l
JOIN timetable_versions v ON v.id = l.version_id
JOIN timetable_slots s ON s.id = l.slot_id
JOIN subjects sub ON sub.id = l.subject_id
JOIN classes c ON c.id = l.class_id
JOIN teachers t ON t.id = l.teacher_id
LEFT JOIN venues ven ON ven.id = l.venue_id`

// TimetableRepository persists timetable versions and their lessons.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BeginTxx starts a transaction for multi-step writes.
func (r *TimetableRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// CreateVersion inserts a new timetable version.
func (r *TimetableRepository) CreateVersion(ctx context.Context, version *models.TimetableVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}
	version.UpdatedAt = now

	const query = `INSERT INTO timetable_versions (id, term_id, name, type, status, published_at, created_at, updated_at)
VALUES (:id, :term_id, :name, :type, :status, :published_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("create timetable version: %w", err)
	}
	return nil
}

// FindVersionByID loads a version by id.
func (r *TimetableRepository) FindVersionByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_versions WHERE id = $1", versionColumns)
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// FindVersionWithLessons loads a version together with its full lesson set.
func (r *TimetableRepository) FindVersionWithLessons(ctx context.Context, id string) (*models.VersionWithLessons, error) {
	version, err := r.FindVersionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lessons, err := r.ListLessons(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.VersionWithLessons{TimetableVersion: *version, Lessons: lessons}, nil
}

// ListLessons returns all lessons belonging to a version.
func (r *TimetableRepository) ListLessons(ctx context.Context, versionID string) ([]models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE version_id = $1 ORDER BY created_at ASC, id ASC", lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, versionID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// ListVersionsByTerm returns every version of a term regardless of status.
func (r *TimetableRepository) ListVersionsByTerm(ctx context.Context, termID string) ([]models.TimetableVersion, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_versions WHERE term_id = $1 ORDER BY created_at DESC", versionColumns)
	var versions []models.TimetableVersion
	if err := r.db.SelectContext(ctx, &versions, query, termID); err != nil {
		return nil, fmt.Errorf("list versions by term: %w", err)
	}
	return versions, nil
}

// ListPublishedWithLessons returns every published version of a term with its
// lessons, across all timetable types.
func (r *TimetableRepository) ListPublishedWithLessons(ctx context.Context, termID string) ([]models.VersionWithLessons, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_versions WHERE term_id = $1 AND status = $2 ORDER BY type ASC, name ASC", versionColumns)
	var versions []models.TimetableVersion
	if err := r.db.SelectContext(ctx, &versions, query, termID, models.TimetableVersionStatusPublished); err != nil {
		return nil, fmt.Errorf("list published versions: %w", err)
	}

	result := make([]models.VersionWithLessons, 0, len(versions))
	for _, version := range versions {
		lessons, err := r.ListLessons(ctx, version.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.VersionWithLessons{TimetableVersion: version, Lessons: lessons})
	}
	return result, nil
}

// FindPublishedByTermAndType loads the single published version for the
// term/type pair, if any.
func (r *TimetableRepository) FindPublishedByTermAndType(ctx context.Context, termID string, timetableType models.TimetableType) (*models.TimetableVersion, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_versions WHERE term_id = $1 AND type = $2 AND status = $3", versionColumns)
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, termID, timetableType, models.TimetableVersionStatusPublished); err != nil {
		return nil, err
	}
	return &version, nil
}

// CountByTermAndName reports how many versions of the term already carry the
// given name.
func (r *TimetableRepository) CountByTermAndName(ctx context.Context, termID, name string) (int, error) {
	const query = `SELECT COUNT(*) FROM timetable_versions WHERE term_id = $1 AND name = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, termID, name); err != nil {
		return 0, fmt.Errorf("count versions by name: %w", err)
	}
	return count, nil
}

// ArchivePublishedSiblings archives every published version sharing the
// term/type pair except the given one.
func (r *TimetableRepository) ArchivePublishedSiblings(ctx context.Context, exec sqlx.ExtContext, termID string, timetableType models.TimetableType, exceptID string) error {
	const query = `UPDATE timetable_versions SET status = $1, updated_at = $2 WHERE term_id = $3 AND type = $4 AND status = $5 AND id <> $6`
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, query, models.TimetableVersionStatusArchived, time.Now().UTC(), termID, timetableType, models.TimetableVersionStatusPublished, exceptID); err != nil {
		return fmt.Errorf("archive published siblings: %w", err)
	}
	return nil
}

// MarkPublished flips a version to PUBLISHED with the given timestamp.
func (r *TimetableRepository) MarkPublished(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error {
	const query = `UPDATE timetable_versions SET status = $1, published_at = $2, updated_at = $3 WHERE id = $4`
	target := r.exec(exec)
	result, err := target.ExecContext(ctx, query, models.TimetableVersionStatusPublished, at, at, id)
	if err != nil {
		return fmt.Errorf("mark version published: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark published rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus sets a version's lifecycle status.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableVersionStatus) error {
	const query = `UPDATE timetable_versions SET status = $1, updated_at = $2 WHERE id = $3`
	target := r.exec(exec)
	result, err := target.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update version status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertLesson stores a single lesson row.
func (r *TimetableRepository) InsertLesson(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO lessons (id, version_id, slot_id, class_id, subject_id, teacher_id, venue_id, created_at)
VALUES (:id, :version_id, :slot_id, :class_id, :subject_id, :teacher_id, :venue_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	return nil
}

// InsertLessons bulk-inserts lessons, typically inside a transaction.
func (r *TimetableRepository) InsertLessons(ctx context.Context, exec sqlx.ExtContext, lessons []models.Lesson) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range lessons {
		payload := lessons[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		const query = `INSERT INTO lessons (id, version_id, slot_id, class_id, subject_id, teacher_id, venue_id, created_at)
VALUES (:id, :version_id, :slot_id, :class_id, :subject_id, :teacher_id, :venue_id, :created_at)`
		if _, err := sqlx.NamedExecContext(ctx, target, query, &payload); err != nil {
			return fmt.Errorf("bulk insert lesson: %w", err)
		}
		lessons[i] = payload
	}
	return nil
}

// DeleteLessonsByVersion removes every lesson of a version.
func (r *TimetableRepository) DeleteLessonsByVersion(ctx context.Context, exec sqlx.ExtContext, versionID string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM lessons WHERE version_id = $1`, versionID); err != nil {
		return fmt.Errorf("delete lessons by version: %w", err)
	}
	return nil
}

// FindLessonByID loads a lesson by id.
func (r *TimetableRepository) FindLessonByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// DeleteLesson removes a single lesson.
func (r *TimetableRepository) DeleteLesson(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lesson rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSlotOccupancy returns the union of lessons occupying a slot across all
// published versions of the term and the given draft version itself.
func (r *TimetableRepository) ListSlotOccupancy(ctx context.Context, termID, slotID, draftVersionID string) ([]models.SlotOccupancy, error) {
	const query = `
SELECT l.slot_id, l.teacher_id, l.class_id, l.venue_id
FROM lessons l
JOIN timetable_versions v ON v.id = l.version_id
WHERE l.slot_id = $1
  AND ((v.term_id = $2 AND v.status = $3) OR l.version_id = $4)`
	var occupancy []models.SlotOccupancy
	if err := r.db.SelectContext(ctx, &occupancy, query, slotID, termID, models.TimetableVersionStatusPublished, draftVersionID); err != nil {
		return nil, fmt.Errorf("list slot occupancy: %w", err)
	}
	return occupancy, nil
}

// ListPublishedOccupancy returns occupancy entries for every lesson in the
// term's published versions, excluding one version when requested.
func (r *TimetableRepository) ListPublishedOccupancy(ctx context.Context, termID, exceptVersionID string) ([]models.SlotOccupancy, error) {
	const query = `
SELECT l.slot_id, l.teacher_id, l.class_id, l.venue_id
FROM lessons l
JOIN timetable_versions v ON v.id = l.version_id
WHERE v.term_id = $1 AND v.status = $2 AND l.version_id <> $3`
	var occupancy []models.SlotOccupancy
	if err := r.db.SelectContext(ctx, &occupancy, query, termID, models.TimetableVersionStatusPublished, exceptVersionID); err != nil {
		return nil, fmt.Errorf("list published occupancy: %w", err)
	}
	return occupancy, nil
}

// ListLessonDetails returns the enriched lesson rows for a version.
func (r *TimetableRepository) ListLessonDetails(ctx context.Context, versionID string) ([]models.LessonDetail, error) {
	query := lessonDetailQuery + " WHERE l.version_id = $1 ORDER BY s.day_of_week ASC, s.start_time ASC"
	var details []models.LessonDetail
	if err := r.db.SelectContext(ctx, &details, query, versionID); err != nil {
		return nil, fmt.Errorf("list lesson details: %w", err)
	}
	return details, nil
}

// ListPublishedLessonDetails returns enriched lessons from the published
// LESSON timetable of a term.
func (r *TimetableRepository) ListPublishedLessonDetails(ctx context.Context, termID string) ([]models.LessonDetail, error) {
	query := lessonDetailQuery + ` WHERE v.term_id = $1 AND v.status = $2 AND v.type = $3
ORDER BY s.day_of_week ASC, s.start_time ASC`
	var details []models.LessonDetail
	if err := r.db.SelectContext(ctx, &details, query, termID, models.TimetableVersionStatusPublished, models.TimetableTypeLesson); err != nil {
		return nil, fmt.Errorf("list published lesson details: %w", err)
	}
	return details, nil
}

// CountLessonsUsingSlot reports how many lessons reference a slot, used to
// block slot deletion.
func (r *TimetableRepository) CountLessonsUsingSlot(ctx context.Context, slotID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM lessons WHERE slot_id = $1`, slotID); err != nil {
		return 0, fmt.Errorf("count lessons using slot: %w", err)
	}
	return count, nil
}
