package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slotbook/apperror"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Kind    apperror.Kind         `json:"kind"`
	Message string                `json:"message"`
	Fields  []apperror.FieldError `json:"fields,omitempty"`
}

const internalErrorMessage = "Internal Server Error"

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("requestId", c.GetString(RequestIDKey)))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Kind:    apperror.KindInternal,
					Message: internalErrorMessage,
				})
			}
		}()
		c.Next()
	}
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation,
		apperror.KindSlotConflict,
		apperror.KindAlreadyPaid,
		apperror.KindPaymentNotInitialized,
		apperror.KindPaymentNotSucceeded,
		apperror.KindInvalidTransition:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConcurrencyConflict:
		return http.StatusConflict
	case apperror.KindGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// JSONError renders err as a standardized JSON error response. Unclassified errors are
// logged in full and reported to the client without detail.
func JSONError(c *gin.Context, logger *zap.Logger, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperror.KindInternal {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("requestId", c.GetString(RequestIDKey)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Kind:    apperror.KindInternal,
			Message: internalErrorMessage,
		})
		return
	}

	status := StatusForKind(appErr.Kind)
	fields := []zap.Field{
		zap.String("kind", string(appErr.Kind)),
		zap.String("path", c.FullPath()),
		zap.String("requestId", c.GetString(RequestIDKey)),
	}
	if appErr.Err != nil {
		fields = append(fields, zap.NamedError("cause", appErr.Err))
	}
	if status >= http.StatusInternalServerError {
		logger.Error(appErr.Message, fields...)
	} else {
		logger.Warn(appErr.Message, fields...)
	}

	c.JSON(status, ErrorResponse{
		Kind:    appErr.Kind,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	})
}
