package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgrid/exam-backend/internal/response"
	"github.com/campusgrid/exam-backend/internal/service"
)

// failFromService maps a domain error to its HTTP status and response code.
// Unknown errors become a 500 without leaking internals.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	case errors.Is(err, service.ErrAccessDenied):
		response.Fail(c, http.StatusForbidden, response.ErrAccessDenied)
	case errors.Is(err, service.ErrInvalidTimeWindow):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidTimeWindow)
	case errors.Is(err, service.ErrTitleRequired), errors.Is(err, service.ErrUnknownCourse):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"detail": err.Error()})
	case errors.Is(err, service.ErrNotYetOpen):
		response.Fail(c, http.StatusConflict, response.ErrExamNotYetOpen)
	case errors.Is(err, service.ErrClosed):
		response.Fail(c, http.StatusConflict, response.ErrExamClosed)
	case errors.Is(err, service.ErrAttemptLimitReached):
		response.Fail(c, http.StatusConflict, response.ErrAttemptLimitReached)
	case errors.Is(err, service.ErrNoActiveAttempt):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveAttempt)
	case errors.Is(err, service.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
