package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusgrid/exam-backend/internal/model"
)

// ExamRepository handles exam definition data access. Questions and settings
// are stored as JSONB documents owned by the exam row.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, title, course_id, faculty_id, exam_type, duration_minutes,
	start_time, end_time, total_marks, passing_marks, instructions,
	questions, settings, status, created_at, updated_at`

// Create inserts a new exam definition.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	questions, settings, err := marshalExamDocs(e)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (id, title, course_id, faculty_id, exam_type, duration_minutes,
			start_time, end_time, total_marks, passing_marks, instructions,
			questions, settings, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at, updated_at`,
		e.ID, e.Title, e.CourseID, e.FacultyID, e.Type, e.DurationMinutes,
		e.StartTime, e.EndTime, e.TotalMarks, e.PassingMarks, e.Instructions,
		questions, settings, e.Status,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	return scanExam(row)
}

// Update persists a fully normalized exam row.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	questions, settings, err := marshalExamDocs(e)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET title = $2, course_id = $3, faculty_id = $4, exam_type = $5,
		     duration_minutes = $6, start_time = $7, end_time = $8,
		     total_marks = $9, passing_marks = $10, instructions = $11,
		     questions = $12, settings = $13, status = $14, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		e.ID, e.Title, e.CourseID, e.FacultyID, e.Type,
		e.DurationMinutes, e.StartTime, e.EndTime,
		e.TotalMarks, e.PassingMarks, e.Instructions,
		questions, settings, e.Status,
	).Scan(&e.UpdatedAt)
}

// Delete removes an exam. Attempts cascade at the schema level; this is the
// only path that ever deletes attempt records.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByCourses retrieves scheduled and active exams for the given courses,
// soonest first. Used for the student exam listing.
func (r *ExamRepository) ListByCourses(ctx context.Context, courseIDs []string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+`
		 FROM exams
		 WHERE course_id = ANY($1) AND status IN ($2, $3)
		 ORDER BY start_time ASC`,
		courseIDs, model.ExamStatusScheduled, model.ExamStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExams(rows)
}

// ListByFaculty retrieves all exams owned by a faculty member, newest first.
func (r *ExamRepository) ListByFaculty(ctx context.Context, facultyID string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+`
		 FROM exams
		 WHERE faculty_id = $1
		 ORDER BY created_at DESC`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExams(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(row rowScanner) (*model.Exam, error) {
	e := &model.Exam{}
	var questions, settings []byte

	err := row.Scan(
		&e.ID, &e.Title, &e.CourseID, &e.FacultyID, &e.Type, &e.DurationMinutes,
		&e.StartTime, &e.EndTime, &e.TotalMarks, &e.PassingMarks, &e.Instructions,
		&questions, &settings, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal(settings, &e.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return e, nil
}

func scanExams(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]model.Exam, error) {
	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

func marshalExamDocs(e *model.Exam) (questions, settings []byte, err error) {
	if e.Questions == nil {
		e.Questions = []model.Question{}
	}
	questions, err = json.Marshal(e.Questions)
	if err != nil {
		return nil, nil, fmt.Errorf("encode questions: %w", err)
	}
	settings, err = json.Marshal(e.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("encode settings: %w", err)
	}
	return questions, settings, nil
}
