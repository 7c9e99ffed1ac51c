package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/campusgrid/exam-backend/internal/model"
	"github.com/campusgrid/exam-backend/internal/scoring"
)

// AttemptStore is the persistence surface of the attempt state machine. Its
// implementation must make CreateInProgress atomic with respect to the
// one-open-attempt invariant: a losing concurrent insert reports
// pgx.ErrNoRows instead of creating a duplicate.
type AttemptStore interface {
	CreateInProgress(ctx context.Context, a *model.Attempt) error
	GetInProgress(ctx context.Context, examID uuid.UUID, studentID string) (*model.Attempt, error)
	GetLatest(ctx context.Context, examID uuid.UUID, studentID string) (*model.Attempt, error)
	CountActive(ctx context.Context, examID uuid.UUID, studentID string) (int, error)
	CompleteSubmit(ctx context.Context, a *model.Attempt) (bool, error)
	UpdateRemarks(ctx context.Context, attemptID uuid.UUID, remarks string) (bool, error)
	UpdateGrade(ctx context.Context, a *model.Attempt) error
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Attempt, error)
}

// SignalSink receives anti-cheat signals for history persistence and live
// monitoring. Publishing is best-effort; a sink failure never fails the
// heartbeat.
type SignalSink interface {
	Publish(ctx context.Context, sig model.Signal) error
}

// AttemptService governs the attempt lifecycle:
//
//	none → in_progress → submitted → graded
//	            └→ timeout (expiry sweep only)
type AttemptService struct {
	attempts AttemptStore
	exams    ExamStore
	courses  CourseDirectory
	signals  SignalSink
	log      zerolog.Logger
	now      func() time.Time
}

// NewAttemptService creates a new AttemptService. signals may be nil when no
// monitoring backend is configured.
func NewAttemptService(
	attempts AttemptStore,
	exams ExamStore,
	courses CourseDirectory,
	signals SignalSink,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		exams:    exams,
		courses:  courses,
		signals:  signals,
		log:      log.With().Str("component", "attempt_service").Logger(),
		now:      time.Now,
	}
}

// Start opens an attempt for the student, or returns the already-open one.
//
// The call is idempotent under retries and races: the attempt store's
// conditional insert guarantees at most one in-progress attempt per
// (exam, student) no matter how many concurrent starts arrive, and a losing
// caller receives the winner's attempt rather than an error.
func (s *AttemptService) Start(ctx context.Context, studentID string, examID uuid.UUID, browserInfo, ipAddress string) (*model.Attempt, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if now.Before(exam.StartTime) {
		return nil, ErrNotYetOpen
	}
	if now.After(exam.EndTime) {
		return nil, ErrClosed
	}

	enrolled, err := s.courses.IsEnrolled(ctx, exam.CourseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrAccessDenied
	}

	// Re-entry: an open attempt is returned unchanged instead of creating a
	// duplicate.
	existing, err := s.attempts.GetInProgress(ctx, examID, studentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check open attempt: %w", err)
	}

	// Timed-out attempts never consume the limit.
	used, err := s.attempts.CountActive(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if used >= exam.Settings.MaxAttempts {
		return nil, ErrAttemptLimitReached
	}

	attempt := &model.Attempt{
		ID:          uuid.New(),
		ExamID:      examID,
		StudentID:   studentID,
		StartedAt:   now,
		Answers:     []model.Answer{},
		Status:      model.AttemptStatusInProgress,
		BrowserInfo: browserInfo,
		IPAddress:   ipAddress,
	}

	if err := s.attempts.CreateInProgress(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent start won the insert; hand back its attempt.
			winner, fetchErr := s.attempts.GetInProgress(ctx, examID, studentID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, fetch winner: %w", fetchErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("student_id", studentID).
		Str("attempt_id", attempt.ID.String()).
		Msg("Attempt started")
	return attempt, nil
}

// Heartbeat records an anti-cheat signal against the student's open attempt.
// It overwrites the attempt's advisory remarks and side-channels the signal
// to the monitor queue; it never touches status or scores.
func (s *AttemptService) Heartbeat(ctx context.Context, studentID string, examID uuid.UUID, visible, fullscreen bool) error {
	attempt, err := s.attempts.GetInProgress(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoActiveAttempt
		}
		return fmt.Errorf("find open attempt: %w", err)
	}

	now := s.now()
	remarks := fmt.Sprintf("visible=%t fullscreen=%t at %s",
		visible, fullscreen, now.UTC().Format(time.RFC3339))

	updated, err := s.attempts.UpdateRemarks(ctx, attempt.ID, remarks)
	if err != nil {
		return fmt.Errorf("update remarks: %w", err)
	}
	if !updated {
		// The attempt was submitted or swept between the read and the write.
		return ErrNoActiveAttempt
	}

	if s.signals != nil {
		sig := model.Signal{
			AttemptID:  attempt.ID,
			ExamID:     examID,
			StudentID:  studentID,
			Visible:    visible,
			Fullscreen: fullscreen,
			RecordedAt: now,
		}
		if err := s.signals.Publish(ctx, sig); err != nil {
			s.log.Warn().Err(err).
				Str("attempt_id", attempt.ID.String()).
				Msg("Signal publish failed")
		}
	}

	return nil
}

// Submit closes the student's open attempt with the given answers, scoring
// objective questions immediately. The transition is one-way: the store's
// conditional update lets exactly one submit win, so client retries after the
// first success fail with ErrNoActiveAttempt and mutate nothing.
func (s *AttemptService) Submit(ctx context.Context, studentID string, examID uuid.UUID, submitted []model.AnswerInput) (*model.Attempt, error) {
	attempt, err := s.attempts.GetInProgress(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveAttempt
		}
		return nil, fmt.Errorf("find open attempt: %w", err)
	}

	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	answers, total := scoring.Objective(exam.Questions, submitted)

	now := s.now()
	attempt.Answers = answers
	attempt.TotalMarks = total
	attempt.Percentage = scoring.Percentage(total, exam.TotalMarks)
	attempt.SubmittedAt = &now
	attempt.TimeSpentMinutes = int(math.Ceil(now.Sub(attempt.StartedAt).Minutes()))
	attempt.Status = model.AttemptStatusSubmitted

	won, err := s.attempts.CompleteSubmit(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("complete submit: %w", err)
	}
	if !won {
		return nil, ErrNoActiveAttempt
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("total_marks", attempt.TotalMarks).
		Int("percentage", attempt.Percentage).
		Msg("Attempt submitted")
	return attempt, nil
}

// Grade merges grader-supplied marks into the student's latest attempt and
// finalizes it. Manual marks override objective-phase marks per question
// index; the total and percentage are recomputed from scratch so repeated
// grading stays idempotent.
func (s *AttemptService) Grade(ctx context.Context, grader *model.Principal, examID uuid.UUID, studentID string, req *model.GradeRequest) (*model.Attempt, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !grader.IsAdmin() && exam.FacultyID != grader.ID {
		return nil, ErrAccessDenied
	}

	attempt, err := s.attempts.GetLatest(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("find attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusInProgress {
		return nil, ErrInvalidState
	}

	marks := make([]model.ManualMark, 0, len(req.Marks))
	for _, in := range req.Marks {
		marks = append(marks, model.ManualMark{
			QuestionIndex: in.QuestionIndex,
			MarksAwarded:  in.MarksAwarded,
			Comment:       in.Comment,
		})
	}

	now := s.now()
	attempt.ManualMarks = marks
	attempt.TotalMarks = scoring.MergeManual(attempt.Answers, marks)
	attempt.Percentage = scoring.Percentage(attempt.TotalMarks, exam.TotalMarks)
	attempt.Feedback = req.Feedback
	attempt.GradedBy = &grader.ID
	attempt.GradedAt = &now
	attempt.Status = model.AttemptStatusGraded

	if err := s.attempts.UpdateGrade(ctx, attempt); err != nil {
		return nil, fmt.Errorf("update grade: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("graded_by", grader.ID).
		Int("total_marks", attempt.TotalMarks).
		Msg("Attempt graded")
	return attempt, nil
}

// ListByExam returns every attempt on an exam for the grading view; owner or
// admin only.
func (s *AttemptService) ListByExam(ctx context.Context, p *model.Principal, examID uuid.UUID) ([]model.Attempt, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && exam.FacultyID != p.ID {
		return nil, ErrAccessDenied
	}

	attempts, err := s.attempts.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

// ListByStudent returns the student's attempts across all exams.
func (s *AttemptService) ListByStudent(ctx context.Context, studentID string) ([]model.Attempt, error) {
	attempts, err := s.attempts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

func (s *AttemptService) getExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}
