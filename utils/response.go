package utils

import (
	"errors"
	"log/slog"
	"net/http"

	"eventboard-api/models"
	"eventboard-api/repositories"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string                `json:"error"`
	Code   int                   `json:"code"`
	Fields []models.FieldProblem `json:"fields"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SendError(c *gin.Context, status int, err string) {
	c.JSON(status, ErrorResponse{
		Error: err,
		Code:  status,
	})
}

func SendValidationError(c *gin.Context, problems []models.FieldProblem) {
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   http.StatusBadRequest,
		Fields: problems,
	})
}

func SendSuccess(c *gin.Context, message string, data interface{}) {
	response := SuccessResponse{
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(http.StatusOK, response)
}

// RespondError maps a workflow or store error onto its HTTP response.
// Store failures get a generic retry message; the cause is only logged.
func RespondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	var serr *repositories.StoreError

	switch {
	case errors.As(err, &verr):
		SendValidationError(c, verr.Problems)
	case errors.Is(err, repositories.ErrNotFound):
		SendError(c, http.StatusNotFound, "Event not found")
	case errors.Is(err, repositories.ErrInvalidTransition):
		SendError(c, http.StatusConflict, "Event is already approved")
	case errors.Is(err, repositories.ErrInvalidField):
		SendError(c, http.StatusBadRequest, "Invalid field")
	case errors.As(err, &serr):
		slog.Error("store_request_failed", "op", serr.Op, "event_id", serr.ID, "error", serr.Err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Something went wrong",
			Message: "Please try again",
			Code:    http.StatusServiceUnavailable,
		})
	default:
		slog.Error("request_failed", "path", c.FullPath(), "error", err)
		SendError(c, http.StatusInternalServerError, "Internal server error")
	}
}
