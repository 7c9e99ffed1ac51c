package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusgrid/exam-backend/internal/model"
)

// AttemptRepository handles attempt data access. The schema carries a partial
// unique index on (exam_id, student_id) WHERE status = 'in_progress', so the
// "at most one open attempt per student per exam" invariant is enforced by
// the database, not by application-level scanning.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, exam_id, student_id, started_at, submitted_at,
	answers, manual_marks, total_marks, percentage, status, time_spent_minutes,
	browser_info, ip_address, feedback, graded_by, graded_at, remarks`

// CreateInProgress inserts a new in-progress attempt. When a concurrent start
// already holds the in-progress slot, the insert is skipped and pgx.ErrNoRows
// is returned; the caller fetches and returns the winner.
func (r *AttemptRepository) CreateInProgress(ctx context.Context, a *model.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (id, exam_id, student_id, answers, status, browser_info, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (exam_id, student_id) WHERE status = 'in_progress' DO NOTHING
		 RETURNING started_at`,
		a.ID, a.ExamID, a.StudentID, answers, model.AttemptStatusInProgress,
		a.BrowserInfo, a.IPAddress,
	).Scan(&a.StartedAt)
}

// GetInProgress retrieves the open attempt for (exam, student), or
// pgx.ErrNoRows when none exists.
func (r *AttemptRepository) GetInProgress(ctx context.Context, examID uuid.UUID, studentID string) (*model.Attempt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE exam_id = $1 AND student_id = $2 AND status = $3`,
		examID, studentID, model.AttemptStatusInProgress)
	return scanAttempt(row)
}

// GetLatest retrieves the most recently started attempt for (exam, student).
func (r *AttemptRepository) GetLatest(ctx context.Context, examID uuid.UUID, studentID string) (*model.Attempt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE exam_id = $1 AND student_id = $2
		 ORDER BY started_at DESC
		 LIMIT 1`,
		examID, studentID)
	return scanAttempt(row)
}

// CountActive counts a student's attempts on an exam that consume the attempt
// limit. Timed-out attempts do not count.
func (r *AttemptRepository) CountActive(ctx context.Context, examID uuid.UUID, studentID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts
		 WHERE exam_id = $1 AND student_id = $2 AND status <> $3`,
		examID, studentID, model.AttemptStatusTimeout,
	).Scan(&n)
	return n, err
}

// CompleteSubmit transitions an attempt from in_progress to submitted with
// its objective-phase results. Returns false if the attempt was no longer in
// progress, which makes a duplicate submit a no-op for the loser.
func (r *AttemptRepository) CompleteSubmit(ctx context.Context, a *model.Attempt) (bool, error) {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return false, fmt.Errorf("encode answers: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $2, answers = $3, total_marks = $4, percentage = $5,
		     submitted_at = $6, time_spent_minutes = $7
		 WHERE id = $1 AND status = $8`,
		a.ID, model.AttemptStatusSubmitted, answers, a.TotalMarks, a.Percentage,
		a.SubmittedAt, a.TimeSpentMinutes, model.AttemptStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateRemarks overwrites the advisory anti-cheat summary on an open
// attempt. Touches no scoring field and no status.
func (r *AttemptRepository) UpdateRemarks(ctx context.Context, attemptID uuid.UUID, remarks string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts SET remarks = $2
		 WHERE id = $1 AND status = $3`,
		attemptID, remarks, model.AttemptStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateGrade stores the manual-mark merge result and marks the attempt
// graded.
func (r *AttemptRepository) UpdateGrade(ctx context.Context, a *model.Attempt) error {
	marks, err := json.Marshal(a.ManualMarks)
	if err != nil {
		return fmt.Errorf("encode manual marks: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $2, manual_marks = $3, total_marks = $4, percentage = $5,
		     feedback = $6, graded_by = $7, graded_at = $8
		 WHERE id = $1`,
		a.ID, model.AttemptStatusGraded, marks, a.TotalMarks, a.Percentage,
		a.Feedback, a.GradedBy, a.GradedAt)
	return err
}

// ListByExam retrieves all attempts for an exam, for the grading view.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE exam_id = $1
		 ORDER BY student_id ASC, started_at DESC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ListByStudent retrieves a student's attempts across all exams, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ExpireStale transitions in-progress attempts whose per-attempt duration or
// exam window has passed into timeout status. Autosaved state is left
// untouched. Returns the number of attempts swept.
func (r *AttemptRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts a
		 SET status = $1
		 FROM exams e
		 WHERE a.exam_id = e.id
		   AND a.status = $2
		   AND (a.started_at + e.duration_minutes * interval '1 minute' < $3
		        OR e.end_time < $3)`,
		model.AttemptStatusTimeout, model.AttemptStatusInProgress, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAttempt(row rowScanner) (*model.Attempt, error) {
	a := &model.Attempt{}
	var answers, marks []byte

	err := row.Scan(
		&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.SubmittedAt,
		&answers, &marks, &a.TotalMarks, &a.Percentage, &a.Status,
		&a.TimeSpentMinutes, &a.BrowserInfo, &a.IPAddress, &a.Feedback,
		&a.GradedBy, &a.GradedAt, &a.Remarks,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if len(marks) > 0 {
		if err := json.Unmarshal(marks, &a.ManualMarks); err != nil {
			return nil, fmt.Errorf("decode manual marks: %w", err)
		}
	}
	return a, nil
}

func scanAttempts(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]model.Attempt, error) {
	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}
