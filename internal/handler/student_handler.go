package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusgrid/exam-backend/internal/middleware"
	"github.com/campusgrid/exam-backend/internal/model"
	"github.com/campusgrid/exam-backend/internal/response"
	"github.com/campusgrid/exam-backend/internal/service"
	"github.com/campusgrid/exam-backend/internal/validator"
)

// StudentHandler handles student-facing exam-taking endpoints.
type StudentHandler struct {
	examService    *service.ExamService
	attemptService *service.AttemptService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(examService *service.ExamService, attemptService *service.AttemptService) *StudentHandler {
	return &StudentHandler{
		examService:    examService,
		attemptService: attemptService,
	}
}

// ListExams godoc
// GET /api/v1/student/exams
// Scheduled and active exams of the student's enrolled courses, with answer
// keys stripped.
func (h *StudentHandler) ListExams(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.examService.ListForStudent(c.Request.Context(), p.ID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// StartAttempt godoc
// POST /api/v1/student/exams/:exam_id/start
// Idempotent: re-entry while an attempt is open returns that attempt.
func (h *StudentHandler) StartAttempt(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.Start(
		c.Request.Context(), p.ID, examID,
		c.Request.UserAgent(), c.ClientIP(),
	)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// Heartbeat godoc
// POST /api/v1/student/exams/:exam_id/heartbeat
// Periodic anti-cheat signal; advisory only.
func (h *StudentHandler) Heartbeat(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.HeartbeatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.Heartbeat(c.Request.Context(), p.ID, examID, *req.Visible, *req.Fullscreen); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "recorded"})
}

// SubmitAttempt godoc
// POST /api/v1/student/exams/:exam_id/submit
// Closes the open attempt and auto-grades objective questions. First call
// wins; retries get NO_ACTIVE_ATTEMPT.
func (h *StudentHandler) SubmitAttempt(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), p.ID, examID, req.Answers)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// MyAttempts godoc
// GET /api/v1/student/attempts
func (h *StudentHandler) MyAttempts(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListByStudent(c.Request.Context(), p.ID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}
