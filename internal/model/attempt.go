package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt lifecycle states.
//
// timeout is produced only by the expiry sweep worker; no request handler
// transitions an attempt into it.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
	AttemptStatusGraded     AttemptStatus = "graded"
	AttemptStatusTimeout    AttemptStatus = "timeout"
)

// Answer is one stored answer on an attempt. IsCorrect and MarksAwarded are
// derived by the objective scoring phase; subjective answers stay at zero
// until a grader supplies a manual mark.
type Answer struct {
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer"`
	IsCorrect     bool   `json:"is_correct"`
	MarksAwarded  int    `json:"marks_awarded"`
}

// ManualMark is a grader-supplied mark for one question index. When present
// it overrides the objective-phase mark for that index in the final total.
type ManualMark struct {
	QuestionIndex int    `json:"question_index"`
	MarksAwarded  int    `json:"marks_awarded"`
	Comment       string `json:"comment,omitempty"`
}

// Attempt is one student's pass at an exam, from start to final grade.
type Attempt struct {
	ID               uuid.UUID     `json:"id"`
	ExamID           uuid.UUID     `json:"exam_id"`
	StudentID        string        `json:"student_id"`
	StartedAt        time.Time     `json:"started_at"`
	SubmittedAt      *time.Time    `json:"submitted_at,omitempty"`
	Answers          []Answer      `json:"answers"`
	ManualMarks      []ManualMark  `json:"manual_marks,omitempty"`
	TotalMarks       int           `json:"total_marks"`
	Percentage       int           `json:"percentage"`
	Status           AttemptStatus `json:"status"`
	TimeSpentMinutes int           `json:"time_spent_minutes"`
	BrowserInfo      string        `json:"browser_info,omitempty"`
	IPAddress        string        `json:"ip_address,omitempty"`
	Feedback         string        `json:"feedback,omitempty"`
	GradedBy         *string       `json:"graded_by,omitempty"`
	GradedAt         *time.Time    `json:"graded_at,omitempty"`
	Remarks          string        `json:"remarks,omitempty"`
}

// Active reports whether the attempt is still open for submission.
func (a *Attempt) Active() bool {
	return a.Status == AttemptStatusInProgress
}

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionIndex int    `json:"question_index" binding:"min=0"`
	Answer        string `json:"answer" binding:"omitempty,max=20000"`
}

// SubmitRequest is the payload for submitting an attempt.
type SubmitRequest struct {
	Answers []AnswerInput `json:"answers" binding:"dive"`
}

// HeartbeatRequest is the periodic anti-cheat signal sent by the exam client.
// Pointers distinguish "false" from "absent" so both booleans are required.
type HeartbeatRequest struct {
	Visible    *bool `json:"visible" binding:"required"`
	Fullscreen *bool `json:"fullscreen" binding:"required"`
}

// ManualMarkInput is one grader mark in a grade request.
type ManualMarkInput struct {
	QuestionIndex int    `json:"question_index" binding:"min=0"`
	MarksAwarded  int    `json:"marks_awarded" binding:"min=0"`
	Comment       string `json:"comment" binding:"omitempty,max=2000"`
}

// GradeRequest is the payload for manual grading of a submitted attempt.
type GradeRequest struct {
	Marks    []ManualMarkInput `json:"marks" binding:"dive"`
	Feedback string            `json:"feedback" binding:"omitempty,max=10000"`
}

// Signal is one anti-cheat observation as queued for history persistence and
// published to exam monitors. Advisory only; never read by scoring.
type Signal struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	ExamID     uuid.UUID `json:"exam_id"`
	StudentID  string    `json:"student_id"`
	Visible    bool      `json:"visible"`
	Fullscreen bool      `json:"fullscreen"`
	RecordedAt time.Time `json:"recorded_at"`
}
