package handler

import (
	"context"
	"errors"
	"net/http"

	"studyquest-server/internal/lock"
	"studyquest-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	errResp := models.ErrorResponse{Success: false}

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp.Code = models.ErrCodeBadRequest
		errResp.Error = err.Error()
	case errors.Is(err, models.ErrScrapeFailed):
		statusCode = http.StatusInternalServerError
		errResp.Code = models.ErrCodeScrapeFailed
		errResp.Error = err.Error()
	case errors.Is(err, lock.ErrLockTimeout), errors.Is(err, context.DeadlineExceeded):
		statusCode = http.StatusServiceUnavailable
		errResp.Code = models.ErrCodeInternal
		errResp.Error = "Request timed out, try again"
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp.Code = models.ErrCodeInternal
		errResp.Error = "An unexpected internal error occurred"
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

// rateLimitExceeded - ответ rate limiter'а в общем формате ошибок.
func rateLimitExceeded(c *gin.Context, retryAfter string) {
	c.Header("Retry-After", retryAfter)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
		Code:  models.ErrCodeTooManyRequests,
		Error: "Too many requests. Try again in " + retryAfter + "s",
	})
}
