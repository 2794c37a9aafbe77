package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MJE43/outcome-engine-go/internal/cascade"
	"github.com/MJE43/outcome-engine-go/internal/mines"
	"github.com/MJE43/outcome-engine-go/internal/payout"
	"github.com/MJE43/outcome-engine-go/internal/pool"
	"github.com/MJE43/outcome-engine-go/internal/round"
	"github.com/MJE43/outcome-engine-go/internal/script"
	"github.com/MJE43/outcome-engine-go/internal/sim"
	"github.com/MJE43/outcome-engine-go/internal/store"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause adds the underlying cause error
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   eb.context,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// classify maps a domain error to its HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrTypeRoundNotFound
	case errors.Is(err, round.ErrUnknownGame), errors.Is(err, sim.ErrGameNotFound):
		return http.StatusNotFound, ErrTypeGameNotFound
	case errors.Is(err, store.ErrAlreadySettled), errors.Is(err, round.ErrNotSettled):
		return http.StatusConflict, ErrTypeRoundConflict
	case errors.Is(err, payout.ErrExceedsPoolCap), errors.Is(err, cascade.ErrGameUnavailable):
		return http.StatusUnprocessableEntity, ErrTypeCapacity
	case errors.Is(err, pool.ErrNoPool):
		return http.StatusServiceUnavailable, ErrTypeServiceUnavailable
	case errors.Is(err, script.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, ErrTypeTimeout
	case isValidation(err):
		return http.StatusBadRequest, ErrTypeInvalidParams
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

var validationErrors = []error{
	round.ErrInvalidParams, round.ErrInvalidReveal, round.ErrInvalidWager,
	payout.ErrDegenerateVector, payout.ErrVectorTooLong, payout.ErrEmptyVector, payout.ErrAllZero,
	payout.ErrNegativeMultiplier, payout.ErrRTPExceeded, payout.ErrUnknownMode, payout.ErrUnknownBetType,
	cascade.ErrInvalidLevelCount, cascade.ErrInvalidWager, cascade.ErrInvalidMaxPayout,
	cascade.ErrNoMultiplier, cascade.ErrMultiplierBelowOne,
	mines.ErrInvalidMineCount, mines.ErrTooManyMines, mines.ErrInvalidCell, mines.ErrNotEnoughCells,
	mines.ErrInvalidRTP, mines.ErrBelowBreakeven,
	script.ErrCompile, script.ErrEval, script.ErrNotNumber,
	sim.ErrInvalidRounds, sim.ErrVectorRequired,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies err and writes the matching response
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	if errors.As(err, &engineErr) {
		eh.logError(r, engineErr, http.StatusBadRequest)
		eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
		return
	}

	status, errType := classify(err)
	engineErr = NewError(errType, err.Error()).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	eh.logError(r, engineErr, status)
	eh.writeErrorResponse(w, status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	eh.logError(r, engineErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
}

// logError logs the error with a level chosen by category
func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	category := GetErrorCategory(engineErr.Type)
	fields := []zap.Field{
		zap.String("type", engineErr.Type),
		zap.String("category", string(category)),
		zap.Int("status", status),
		zap.String("request_id", engineErr.RequestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_ip", r.RemoteAddr),
		zap.Any("context", engineErr.Context),
	}

	switch {
	case status >= 500:
		eh.logger.Error(engineErr.Message, fields...)
	case category == CategoryValidation:
		eh.logger.Debug(engineErr.Message, fields...)
	default:
		eh.logger.Warn(engineErr.Message, fields...)
	}
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	writeJSON(w, status, engineErr)
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())
				eh.logger.Error("panic recovered",
					zap.String("request_id", requestID),
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.Any("panic", rvr),
					zap.Stack("stack"))

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()
				eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
