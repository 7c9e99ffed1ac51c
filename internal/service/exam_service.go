package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/campusgrid/exam-backend/internal/model"
)

const (
	defaultDurationMinutes = 60
	defaultTotalMarks      = 100
	defaultMaxAttempts     = 1
	// defaultPassingRatio is applied when the author supplies no passing mark.
	defaultPassingRatio = 0.4
)

// defaultMCQOptions fill in for MCQ questions submitted without options.
var defaultMCQOptions = []string{"Option A", "Option B", "Option C", "Option D"}

// ErrTitleRequired rejects titles that are empty after trimming. Declared
// separately from the binding layer because whitespace-only titles pass the
// required tag.
var ErrTitleRequired = errors.New("exam title must not be blank")

// ErrUnknownCourse rejects exams referencing a course the registrar does not
// know about.
var ErrUnknownCourse = errors.New("course does not exist")

// ExamStore is the persistence surface the catalog needs.
type ExamStore interface {
	Create(ctx context.Context, e *model.Exam) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	Update(ctx context.Context, e *model.Exam) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByCourses(ctx context.Context, courseIDs []string) ([]model.Exam, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]model.Exam, error)
}

// CourseDirectory is the registrar collaborator contract: course ownership
// and enrollment lookups supplied by an external system.
type CourseDirectory interface {
	CourseOwner(ctx context.Context, courseID string) (string, error)
	CoursesForStudent(ctx context.Context, studentID string) ([]string, error)
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

// ExamService is the exam catalog: validated creation and mutation of exam
// definitions. Malformed optional fields are defaulted, not rejected; only
// structurally required fields fail the request.
type ExamService struct {
	exams   ExamStore
	courses CourseDirectory
	log     zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, courses CourseDirectory, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:   exams,
		courses: courses,
		log:     log.With().Str("component", "exam_service").Logger(),
	}
}

// Create validates and persists a new exam in scheduled status.
func (s *ExamService) Create(ctx context.Context, p *model.Principal, req *model.CreateExamRequest) (*model.Exam, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if err := s.checkCourseOwnership(ctx, p, req.CourseID); err != nil {
		return nil, err
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeWindow
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for _, in := range req.Questions {
		questions = append(questions, normalizeQuestion(in))
	}

	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           title,
		CourseID:        req.CourseID,
		FacultyID:       p.ID,
		Type:            normalizeExamType(req.Type),
		DurationMinutes: normalizeDuration(req.DurationMinutes),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Instructions:    req.Instructions,
		Questions:       questions,
		Settings:        normalizeSettings(req.Settings),
		Status:          model.ExamStatusScheduled,
	}

	exam.TotalMarks = resolveTotalMarks(req.TotalMarks, questions)
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	} else {
		exam.PassingMarks = int(math.Round(float64(exam.TotalMarks) * defaultPassingRatio))
	}

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("faculty_id", p.ID).
		Str("course_id", exam.CourseID).
		Msg("Exam created")
	return exam, nil
}

// Update applies a partial update with the same normalization rules as
// Create. Ownership is re-checked when the course reference changes.
// TotalMarks is recomputed from questions only when questions change and the
// caller supplies no explicit total; otherwise caller intent is preserved.
func (s *ExamService) Update(ctx context.Context, p *model.Principal, examID uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.getOwned(ctx, p, examID)
	if err != nil {
		return nil, err
	}

	if req.CourseID != nil && *req.CourseID != exam.CourseID {
		if err := s.checkCourseOwnership(ctx, p, *req.CourseID); err != nil {
			return nil, err
		}
		exam.CourseID = *req.CourseID
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		exam.Title = title
	}
	if req.Type != nil {
		exam.Type = normalizeExamType(*req.Type)
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = normalizeDuration(*req.DurationMinutes)
	}
	if req.StartTime != nil {
		exam.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		exam.EndTime = *req.EndTime
	}
	if !exam.EndTime.After(exam.StartTime) {
		return nil, ErrInvalidTimeWindow
	}
	if req.Instructions != nil {
		exam.Instructions = *req.Instructions
	}

	questionsChanged := req.Questions != nil
	if questionsChanged {
		questions := make([]model.Question, 0, len(req.Questions))
		for _, in := range req.Questions {
			questions = append(questions, normalizeQuestion(in))
		}
		exam.Questions = questions
	}

	switch {
	case req.TotalMarks != nil:
		exam.TotalMarks = *req.TotalMarks
	case questionsChanged:
		exam.TotalMarks = resolveTotalMarks(nil, exam.Questions)
	}

	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}
	if req.Settings != nil {
		applySettings(&exam.Settings, req.Settings)
	}
	if req.Status != nil {
		exam.Status = model.ExamStatus(*req.Status)
	}

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}

	s.log.Info().Str("exam_id", exam.ID.String()).Msg("Exam updated")
	return exam, nil
}

// Get retrieves an exam with grading material; owner or admin only.
func (s *ExamService) Get(ctx context.Context, p *model.Principal, examID uuid.UUID) (*model.Exam, error) {
	return s.getOwned(ctx, p, examID)
}

// Delete removes an exam and, through the schema cascade, its attempts.
func (s *ExamService) Delete(ctx context.Context, p *model.Principal, examID uuid.UUID) error {
	if _, err := s.getOwned(ctx, p, examID); err != nil {
		return err
	}

	deleted, err := s.exams.Delete(ctx, examID)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if !deleted {
		return ErrExamNotFound
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam deleted")
	return nil
}

// ListForStudent returns upcoming and running exams for the student's
// enrolled courses, with answer keys stripped.
func (s *ExamService) ListForStudent(ctx context.Context, studentID string) ([]model.ExamForStudent, error) {
	courseIDs, err := s.courses.CoursesForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if len(courseIDs) == 0 {
		return []model.ExamForStudent{}, nil
	}

	exams, err := s.exams.ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	listed := make([]model.ExamForStudent, 0, len(exams))
	for i := range exams {
		listed = append(listed, exams[i].ForStudent())
	}
	return listed, nil
}

// ListByFaculty returns the exams a faculty member owns.
func (s *ExamService) ListByFaculty(ctx context.Context, facultyID string) ([]model.Exam, error) {
	exams, err := s.exams.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// getOwned loads an exam and authorizes the principal as its owning faculty
// or an admin.
func (s *ExamService) getOwned(ctx context.Context, p *model.Principal, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !p.IsAdmin() && exam.FacultyID != p.ID {
		return nil, ErrAccessDenied
	}
	return exam, nil
}

func (s *ExamService) checkCourseOwnership(ctx context.Context, p *model.Principal, courseID string) error {
	owner, err := s.courses.CourseOwner(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUnknownCourse
		}
		return fmt.Errorf("lookup course owner: %w", err)
	}
	if !p.IsAdmin() && owner != p.ID {
		return ErrAccessDenied
	}
	return nil
}

// normalizeQuestion coerces an author-supplied question into a well-formed
// one: unrecognized types fall back to mcq, optionless MCQs get placeholder
// options, and marks are clamped to at least one.
func normalizeQuestion(in model.QuestionInput) model.Question {
	q := model.Question{
		Text:          in.Text,
		Type:          model.QuestionType(in.Type),
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
		Marks:         in.Marks,
		Explanation:   in.Explanation,
	}

	if !model.ValidQuestionType(q.Type) {
		q.Type = model.QuestionTypeMCQ
	}
	if q.Type == model.QuestionTypeMCQ && len(q.Options) == 0 {
		q.Options = append([]string(nil), defaultMCQOptions...)
	}
	if q.Marks < 1 {
		q.Marks = 1
	}
	return q
}

func normalizeExamType(t string) model.ExamType {
	switch model.ExamType(t) {
	case model.ExamTypeQuiz, model.ExamTypeMidterm, model.ExamTypeFinal, model.ExamTypeAssignment:
		return model.ExamType(t)
	}
	return model.ExamTypeQuiz
}

func normalizeDuration(minutes int) int {
	if minutes < 1 {
		return defaultDurationMinutes
	}
	return minutes
}

// resolveTotalMarks picks the explicit total when given, otherwise the sum of
// question marks, otherwise the catalog default.
func resolveTotalMarks(explicit *int, questions []model.Question) int {
	if explicit != nil && *explicit >= 1 {
		return *explicit
	}
	sum := 0
	for _, q := range questions {
		sum += q.Marks
	}
	if sum > 0 {
		return sum
	}
	return defaultTotalMarks
}

func normalizeSettings(in *model.SettingsInput) model.Settings {
	settings := model.Settings{MaxAttempts: defaultMaxAttempts}
	if in != nil {
		applySettings(&settings, in)
	}
	return settings
}

func applySettings(dst *model.Settings, in *model.SettingsInput) {
	if in.ShuffleQuestions != nil {
		dst.ShuffleQuestions = *in.ShuffleQuestions
	}
	if in.ShuffleOptions != nil {
		dst.ShuffleOptions = *in.ShuffleOptions
	}
	if in.AllowReview != nil {
		dst.AllowReview = *in.AllowReview
	}
	if in.ShowResults != nil {
		dst.ShowResults = *in.ShowResults
	}
	if in.PreventCopyPaste != nil {
		dst.PreventCopyPaste = *in.PreventCopyPaste
	}
	if in.FullScreenMode != nil {
		dst.FullScreenMode = *in.FullScreenMode
	}
	if in.MaxAttempts != nil && *in.MaxAttempts >= 1 {
		dst.MaxAttempts = *in.MaxAttempts
	}
}
