package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the lifecycle states of an exam definition.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusScheduled ExamStatus = "scheduled"
	ExamStatusActive    ExamStatus = "active"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

// ExamType categorizes an exam for reporting purposes.
type ExamType string

const (
	ExamTypeQuiz       ExamType = "quiz"
	ExamTypeMidterm    ExamType = "midterm"
	ExamTypeFinal      ExamType = "final"
	ExamTypeAssignment ExamType = "assignment"
)

// QuestionType discriminates how a question is rendered and graded.
type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeTrueFalse   QuestionType = "true_false"
	QuestionTypeShortAnswer QuestionType = "short_answer"
	QuestionTypeLongAnswer  QuestionType = "long_answer"
)

// ValidQuestionType reports whether t is one of the four recognized types.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeTrueFalse, QuestionTypeShortAnswer, QuestionTypeLongAnswer:
		return true
	}
	return false
}

// Question is a value object owned by its exam; it has no identity beyond
// its index position in the exam's question list.
type Question struct {
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Marks         int          `json:"marks"`
	Explanation   string       `json:"explanation,omitempty"`
}

// Objective reports whether the question type is graded by exact answer
// match. Subjective types always wait for manual grading.
func (q Question) Objective() bool {
	return q.Type == QuestionTypeMCQ || q.Type == QuestionTypeTrueFalse
}

// AutoGradable reports whether the objective phase can score this question:
// it must be an objective type and carry a non-empty answer key.
func (q Question) AutoGradable() bool {
	return q.Objective() && strings.TrimSpace(q.CorrectAnswer) != ""
}

// Settings are client-advisory toggles embedded in the exam, plus the
// server-enforced per-student attempt limit.
type Settings struct {
	ShuffleQuestions bool `json:"shuffle_questions"`
	ShuffleOptions   bool `json:"shuffle_options"`
	AllowReview      bool `json:"allow_review"`
	ShowResults      bool `json:"show_results"`
	PreventCopyPaste bool `json:"prevent_copy_paste"`
	FullScreenMode   bool `json:"full_screen_mode"`
	MaxAttempts      int  `json:"max_attempts"`
}

// Exam is a timed exam definition owned by a faculty member for one course.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	CourseID        string     `json:"course_id"`
	FacultyID       string     `json:"faculty_id"`
	Type            ExamType   `json:"exam_type"`
	DurationMinutes int        `json:"duration_minutes"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	TotalMarks      int        `json:"total_marks"`
	PassingMarks    int        `json:"passing_marks"`
	Instructions    string     `json:"instructions,omitempty"`
	Questions       []Question `json:"questions"`
	Settings        Settings   `json:"settings"`
	Status          ExamStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ExamForStudent is an exam as listed to students: no answer keys, no
// explanations.
type ExamForStudent struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	CourseID        string     `json:"course_id"`
	Type            ExamType   `json:"exam_type"`
	DurationMinutes int        `json:"duration_minutes"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	TotalMarks      int        `json:"total_marks"`
	PassingMarks    int        `json:"passing_marks"`
	Instructions    string     `json:"instructions,omitempty"`
	Settings        Settings   `json:"settings"`
	Status          ExamStatus `json:"status"`
}

// ForStudent strips grading material from an exam.
func (e *Exam) ForStudent() ExamForStudent {
	return ExamForStudent{
		ID:              e.ID,
		Title:           e.Title,
		CourseID:        e.CourseID,
		Type:            e.Type,
		DurationMinutes: e.DurationMinutes,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		TotalMarks:      e.TotalMarks,
		PassingMarks:    e.PassingMarks,
		Instructions:    e.Instructions,
		Settings:        e.Settings,
		Status:          e.Status,
	}
}

// QuestionInput is a question as supplied by the exam author. Missing or
// unrecognized optional fields are normalized by the catalog service, not
// rejected.
type QuestionInput struct {
	Text          string   `json:"text" binding:"required,min=1,max=5000"`
	Type          string   `json:"type" binding:"omitempty,max=32"`
	Options       []string `json:"options" binding:"omitempty,dive,max=1000"`
	CorrectAnswer string   `json:"correct_answer" binding:"omitempty,max=5000"`
	Marks         int      `json:"marks"`
	Explanation   string   `json:"explanation" binding:"omitempty,max=5000"`
}

// SettingsInput carries optional setting overrides.
type SettingsInput struct {
	ShuffleQuestions *bool `json:"shuffle_questions"`
	ShuffleOptions   *bool `json:"shuffle_options"`
	AllowReview      *bool `json:"allow_review"`
	ShowResults      *bool `json:"show_results"`
	PreventCopyPaste *bool `json:"prevent_copy_paste"`
	FullScreenMode   *bool `json:"full_screen_mode"`
	MaxAttempts      *int  `json:"max_attempts" binding:"omitempty,min=1"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string          `json:"title" binding:"required,min=1,max=255"`
	CourseID        string          `json:"course_id" binding:"required,max=64"`
	Type            string          `json:"exam_type" binding:"omitempty,oneof=quiz midterm final assignment"`
	DurationMinutes int             `json:"duration_minutes"`
	StartTime       time.Time       `json:"start_time" binding:"required"`
	EndTime         time.Time       `json:"end_time" binding:"required"`
	TotalMarks      *int            `json:"total_marks" binding:"omitempty,min=1"`
	PassingMarks    *int            `json:"passing_marks" binding:"omitempty,min=0"`
	Instructions    string          `json:"instructions" binding:"omitempty,max=10000"`
	Questions       []QuestionInput `json:"questions" binding:"omitempty,dive"`
	Settings        *SettingsInput  `json:"settings" binding:"omitempty"`
}

// UpdateExamRequest is the payload for a partial exam update. Nil fields are
// left untouched.
type UpdateExamRequest struct {
	Title           *string         `json:"title" binding:"omitempty,min=1,max=255"`
	CourseID        *string         `json:"course_id" binding:"omitempty,max=64"`
	Type            *string         `json:"exam_type" binding:"omitempty,oneof=quiz midterm final assignment"`
	DurationMinutes *int            `json:"duration_minutes" binding:"omitempty"`
	StartTime       *time.Time      `json:"start_time" binding:"omitempty"`
	EndTime         *time.Time      `json:"end_time" binding:"omitempty"`
	TotalMarks      *int            `json:"total_marks" binding:"omitempty,min=1"`
	PassingMarks    *int            `json:"passing_marks" binding:"omitempty,min=0"`
	Instructions    *string         `json:"instructions" binding:"omitempty,max=10000"`
	Questions       []QuestionInput `json:"questions" binding:"omitempty,dive"`
	Settings        *SettingsInput  `json:"settings" binding:"omitempty"`
	Status          *string         `json:"status" binding:"omitempty,oneof=draft scheduled active completed cancelled"`
}
