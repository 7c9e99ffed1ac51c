package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campusgrid/exam-backend/internal/model"
)

type examFixture struct {
	svc     *ExamService
	exams   *fakeExamStore
	courses *fakeCourseDirectory
	faculty *model.Principal
}

func newExamFixture(t *testing.T) *examFixture {
	t.Helper()

	courses := newFakeCourseDirectory()
	courses.addCourse(testCourse, testFaculty, testStudent)

	exams := newFakeExamStore()
	return &examFixture{
		svc:     NewExamService(exams, courses, zerolog.Nop()),
		exams:   exams,
		courses: courses,
		faculty: &model.Principal{ID: testFaculty, Role: model.RoleFaculty},
	}
}

func baseCreateRequest() *model.CreateExamRequest {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return &model.CreateExamRequest{
		Title:     "Midterm",
		CourseID:  testCourse,
		Type:      "midterm",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

func TestCreateNormalizesQuestions(t *testing.T) {
	f := newExamFixture(t)

	req := baseCreateRequest()
	req.DurationMinutes = 0
	req.Questions = []model.QuestionInput{
		{Text: "Pick one", Type: "multiple_choice", Marks: 0},
		{Text: "True or false?", Type: "true_false", CorrectAnswer: "true", Marks: 3},
	}

	exam, err := f.svc.Create(context.Background(), f.faculty, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Unrecognized type falls back to mcq and gets placeholder options; zero
	// marks are clamped to one.
	q := exam.Questions[0]
	if q.Type != model.QuestionTypeMCQ {
		t.Errorf("type = %s, want mcq", q.Type)
	}
	if len(q.Options) != 4 {
		t.Errorf("options = %d, want 4 placeholders", len(q.Options))
	}
	if q.Marks != 1 {
		t.Errorf("marks = %d, want 1", q.Marks)
	}

	if exam.DurationMinutes != 60 {
		t.Errorf("duration = %d, want default 60", exam.DurationMinutes)
	}
	if exam.TotalMarks != 4 {
		t.Errorf("total_marks = %d, want sum 4", exam.TotalMarks)
	}
	if exam.PassingMarks != 2 {
		t.Errorf("passing_marks = %d, want 2", exam.PassingMarks)
	}
	if exam.Status != model.ExamStatusScheduled {
		t.Errorf("status = %s, want scheduled", exam.Status)
	}
	if exam.Settings.MaxAttempts != 1 {
		t.Errorf("max_attempts = %d, want default 1", exam.Settings.MaxAttempts)
	}
}

func TestCreateWithoutQuestionsDefaultsTotals(t *testing.T) {
	f := newExamFixture(t)

	exam, err := f.svc.Create(context.Background(), f.faculty, baseCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if exam.TotalMarks != 100 {
		t.Errorf("total_marks = %d, want 100", exam.TotalMarks)
	}
	if exam.PassingMarks != 40 {
		t.Errorf("passing_marks = %d, want 40", exam.PassingMarks)
	}
}

func TestCreatePreservesExplicitTotals(t *testing.T) {
	f := newExamFixture(t)

	total, passing := 50, 20
	req := baseCreateRequest()
	req.TotalMarks = &total
	req.PassingMarks = &passing
	req.Questions = []model.QuestionInput{
		{Text: "Q1", Type: "mcq", CorrectAnswer: "a", Marks: 5},
	}

	exam, err := f.svc.Create(context.Background(), f.faculty, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if exam.TotalMarks != 50 || exam.PassingMarks != 20 {
		t.Errorf("totals = %d/%d, want 50/20", exam.TotalMarks, exam.PassingMarks)
	}
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	f := newExamFixture(t)

	req := baseCreateRequest()
	req.Title = "   "
	if _, err := f.svc.Create(context.Background(), f.faculty, req); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("err = %v, want ErrTitleRequired", err)
	}
}

func TestCreateRejectsInvalidWindow(t *testing.T) {
	f := newExamFixture(t)

	req := baseCreateRequest()
	req.EndTime = req.StartTime
	if _, err := f.svc.Create(context.Background(), f.faculty, req); !errors.Is(err, ErrInvalidTimeWindow) {
		t.Errorf("err = %v, want ErrInvalidTimeWindow", err)
	}
}

func TestCreateChecksCourse(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	req := baseCreateRequest()
	req.CourseID = "ghost"
	if _, err := f.svc.Create(ctx, f.faculty, req); !errors.Is(err, ErrUnknownCourse) {
		t.Errorf("unknown course: err = %v, want ErrUnknownCourse", err)
	}

	f.courses.addCourse("EE200", "faculty-2")
	req.CourseID = "EE200"
	if _, err := f.svc.Create(ctx, f.faculty, req); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("foreign course: err = %v, want ErrAccessDenied", err)
	}

	admin := &model.Principal{ID: "admin-1", Role: model.RoleAdmin}
	if _, err := f.svc.Create(ctx, admin, req); err != nil {
		t.Errorf("admin on foreign course: %v", err)
	}
}

func TestUpdatePartialKeepsTotals(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	total := 50
	req := baseCreateRequest()
	req.TotalMarks = &total
	exam, err := f.svc.Create(ctx, f.faculty, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Midterm (rescheduled)"
	updated, err := f.svc.Update(ctx, f.faculty, exam.ID, &model.UpdateExamRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q, want %q", updated.Title, title)
	}
	if updated.TotalMarks != 50 {
		t.Errorf("total_marks = %d, want unchanged 50", updated.TotalMarks)
	}
}

func TestUpdateRecomputesTotalOnQuestionChange(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	exam, err := f.svc.Create(ctx, f.faculty, baseCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := f.svc.Update(ctx, f.faculty, exam.ID, &model.UpdateExamRequest{
		Questions: []model.QuestionInput{
			{Text: "Q1", Type: "mcq", CorrectAnswer: "a", Marks: 2},
			{Text: "Q2", Type: "short_answer", Marks: 8},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.TotalMarks != 10 {
		t.Errorf("total_marks = %d, want recomputed 10", updated.TotalMarks)
	}

	// An explicit total wins over recomputation.
	total := 25
	updated, err = f.svc.Update(ctx, f.faculty, exam.ID, &model.UpdateExamRequest{
		TotalMarks: &total,
		Questions:  []model.QuestionInput{{Text: "Q1", Type: "mcq", CorrectAnswer: "a", Marks: 2}},
	})
	if err != nil {
		t.Fatalf("Update with explicit total: %v", err)
	}
	if updated.TotalMarks != 25 {
		t.Errorf("total_marks = %d, want explicit 25", updated.TotalMarks)
	}
}

func TestUpdateValidatesMergedWindow(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	exam, err := f.svc.Create(ctx, f.faculty, baseCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	badEnd := exam.StartTime.Add(-time.Hour)
	if _, err := f.svc.Update(ctx, f.faculty, exam.ID, &model.UpdateExamRequest{EndTime: &badEnd}); !errors.Is(err, ErrInvalidTimeWindow) {
		t.Errorf("err = %v, want ErrInvalidTimeWindow", err)
	}
}

func TestUpdateRequiresOwnership(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	exam, err := f.svc.Create(ctx, f.faculty, baseCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := &model.Principal{ID: "faculty-2", Role: model.RoleFaculty}
	title := "hijacked"
	if _, err := f.svc.Update(ctx, other, exam.ID, &model.UpdateExamRequest{Title: &title}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}

	if _, err := f.svc.Update(ctx, f.faculty, uuid.New(), &model.UpdateExamRequest{Title: &title}); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("err = %v, want ErrExamNotFound", err)
	}
}

func TestDeleteExam(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	exam, err := f.svc.Create(ctx, f.faculty, baseCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Delete(ctx, f.faculty, exam.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(ctx, f.faculty, exam.ID); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("second delete: err = %v, want ErrExamNotFound", err)
	}
}

func TestListForStudentStripsAnswerKeys(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	req := baseCreateRequest()
	req.Questions = []model.QuestionInput{
		{Text: "Q1", Type: "mcq", Options: []string{"a", "b"}, CorrectAnswer: "a", Marks: 5},
	}
	if _, err := f.svc.Create(ctx, f.faculty, req); err != nil {
		t.Fatalf("Create: %v", err)
	}

	listed, err := f.svc.ListForStudent(ctx, testStudent)
	if err != nil {
		t.Fatalf("ListForStudent: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed = %d, want 1", len(listed))
	}

	// The student projection carries no question material at all.
	if listed[0].TotalMarks != 5 {
		t.Errorf("total_marks = %d, want 5", listed[0].TotalMarks)
	}

	// A student with no enrollments sees an empty catalog, not an error.
	none, err := f.svc.ListForStudent(ctx, "unenrolled")
	if err != nil {
		t.Fatalf("ListForStudent unenrolled: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unenrolled listed = %d, want 0", len(none))
	}
}
