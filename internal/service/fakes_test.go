package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusgrid/exam-backend/internal/model"
)

// fakeExamStore is an in-memory ExamStore for service tests.
type fakeExamStore struct {
	mu    sync.Mutex
	exams map[uuid.UUID]model.Exam
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{exams: make(map[uuid.UUID]model.Exam)}
}

func (f *fakeExamStore) Create(_ context.Context, e *model.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exams[e.ID] = *e
	return nil
}

func (f *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := e
	return &copied, nil
}

func (f *fakeExamStore) Update(_ context.Context, e *model.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exams[e.ID] = *e
	return nil
}

func (f *fakeExamStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.exams[id]
	delete(f.exams, id)
	return ok, nil
}

func (f *fakeExamStore) ListByCourses(_ context.Context, courseIDs []string) ([]model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	var out []model.Exam
	for _, e := range f.exams {
		if !wanted[e.CourseID] {
			continue
		}
		if e.Status != model.ExamStatusScheduled && e.Status != model.ExamStatusActive {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeExamStore) ListByFaculty(_ context.Context, facultyID string) ([]model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Exam
	for _, e := range f.exams {
		if e.FacultyID == facultyID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeAttemptStore is an in-memory AttemptStore. CreateInProgress mirrors the
// database's conditional insert: a second open attempt for the same
// (exam, student) pair loses with pgx.ErrNoRows.
type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]model.Attempt
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{attempts: make(map[uuid.UUID]model.Attempt)}
}

func (f *fakeAttemptStore) CreateInProgress(_ context.Context, a *model.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.attempts {
		if existing.ExamID == a.ExamID && existing.StudentID == a.StudentID &&
			existing.Status == model.AttemptStatusInProgress {
			return pgx.ErrNoRows
		}
	}
	f.attempts[a.ID] = *a
	return nil
}

func (f *fakeAttemptStore) GetInProgress(_ context.Context, examID uuid.UUID, studentID string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.ExamID == examID && a.StudentID == studentID && a.Status == model.AttemptStatusInProgress {
			copied := a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAttemptStore) GetLatest(_ context.Context, examID uuid.UUID, studentID string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Attempt
	for _, a := range f.attempts {
		if a.ExamID != examID || a.StudentID != studentID {
			continue
		}
		if latest == nil || a.StartedAt.After(latest.StartedAt) {
			copied := a
			latest = &copied
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

func (f *fakeAttemptStore) CountActive(_ context.Context, examID uuid.UUID, studentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.attempts {
		if a.ExamID == examID && a.StudentID == studentID && a.Status != model.AttemptStatusTimeout {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptStore) CompleteSubmit(_ context.Context, a *model.Attempt) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.attempts[a.ID]
	if !ok || existing.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	f.attempts[a.ID] = *a
	return true, nil
}

func (f *fakeAttemptStore) UpdateRemarks(_ context.Context, attemptID uuid.UUID, remarks string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.attempts[attemptID]
	if !ok || existing.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	existing.Remarks = remarks
	f.attempts[attemptID] = existing
	return true, nil
}

func (f *fakeAttemptStore) UpdateGrade(_ context.Context, a *model.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[a.ID] = *a
	return nil
}

func (f *fakeAttemptStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for _, a := range f.attempts {
		if a.ExamID == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) ListByStudent(_ context.Context, studentID string) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for _, a := range f.attempts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

// put force-inserts an attempt, bypassing the conditional-insert rule.
func (f *fakeAttemptStore) put(a model.Attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[a.ID] = a
}

func (f *fakeAttemptStore) get(id uuid.UUID) (model.Attempt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	return a, ok
}

// fakeCourseDirectory is an in-memory CourseDirectory.
type fakeCourseDirectory struct {
	owners      map[string]string
	enrollments map[string][]string
}

func newFakeCourseDirectory() *fakeCourseDirectory {
	return &fakeCourseDirectory{
		owners:      make(map[string]string),
		enrollments: make(map[string][]string),
	}
}

func (f *fakeCourseDirectory) addCourse(courseID, facultyID string, studentIDs ...string) {
	f.owners[courseID] = facultyID
	f.enrollments[courseID] = append(f.enrollments[courseID], studentIDs...)
}

func (f *fakeCourseDirectory) CourseOwner(_ context.Context, courseID string) (string, error) {
	owner, ok := f.owners[courseID]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return owner, nil
}

func (f *fakeCourseDirectory) CoursesForStudent(_ context.Context, studentID string) ([]string, error) {
	var out []string
	for courseID, students := range f.enrollments {
		for _, sid := range students {
			if sid == studentID {
				out = append(out, courseID)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeCourseDirectory) IsEnrolled(_ context.Context, courseID, studentID string) (bool, error) {
	for _, sid := range f.enrollments[courseID] {
		if sid == studentID {
			return true, nil
		}
	}
	return false, nil
}

// fakeSignalSink records published signals.
type fakeSignalSink struct {
	mu      sync.Mutex
	signals []model.Signal
	err     error
}

func (f *fakeSignalSink) Publish(_ context.Context, sig model.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.signals = append(f.signals, sig)
	return nil
}

func (f *fakeSignalSink) published() []model.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Signal(nil), f.signals...)
}
