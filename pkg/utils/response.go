package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *AppError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Meta struct {
	Page       int   `json:"page,omitempty"`
	PerPage    int   `json:"per_page,omitempty"`
	Total      int64 `json:"total,omitempty"`
	TotalPages int   `json:"total_pages,omitempty"`
}

func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func SendSuccessWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func SendError(c *gin.Context, statusCode int, err *AppError) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   err,
	})
}

func SendValidationError(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadRequest, NewAppError(ErrCodeValidation, message, details))
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, NewAppError(ErrCodeNotFound, message))
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, NewAppError(ErrCodeInternal, message))
}

// SendClassifiedError maps a wrapped service error onto the matching
// HTTP status and error code.
func SendClassifiedError(c *gin.Context, err error) {
	code := ClassifyError(err)
	switch code {
	case ErrCodeValidation:
		SendError(c, http.StatusBadRequest, NewAppError(code, "invalid request", err.Error()))
	case ErrCodeNotFound:
		SendError(c, http.StatusNotFound, NewAppError(code, "not found", err.Error()))
	case ErrCodeContention:
		// Transient: the same computation is already in flight elsewhere.
		SendError(c, http.StatusServiceUnavailable, NewAppError(code, "computation busy, retry shortly", err.Error()))
	case ErrCodeUpstream:
		SendError(c, http.StatusBadGateway, NewAppError(code, "upstream data source failed", err.Error()))
	default:
		SendInternalError(c, err.Error())
	}
}
