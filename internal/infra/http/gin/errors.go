package ginserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	listingapp "rentlona/internal/app/handlers/listings"
	"rentlona/internal/app/middleware"
	authsvc "rentlona/internal/app/services/auth"
	domainlistings "rentlona/internal/domain/listings"
	domainmessages "rentlona/internal/domain/messages"
	"rentlona/internal/domain/shared/validation"
	domainuser "rentlona/internal/domain/user"
)

type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const validationMessage = "Validation failed"

// respondError maps application errors to a status and a client-safe body.
// Unclassified errors are logged and reported as a bare 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		bindErrs   validator.ValidationErrors
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		maxByteErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &bindErrs):
		abort(c, http.StatusBadRequest, errorResponse{Message: validationMessage, Fields: bindingFields(bindErrs)})
	case errors.Is(err, validation.ErrInvalid):
		abort(c, http.StatusBadRequest, errorResponse{Message: validationMessage, Fields: validation.FieldsOf(err)})
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		abort(c, http.StatusBadRequest, errorResponse{Message: validationMessage, Fields: map[string]string{field: "has the wrong type"}})
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		abort(c, http.StatusBadRequest, errorResponse{Message: "Malformed request body"})
	case errors.As(err, &maxByteErr):
		abort(c, http.StatusRequestEntityTooLarge, errorResponse{Message: "Request body too large"})
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		abort(c, http.StatusUnauthorized, errorResponse{Message: "Invalid credentials"})
	case errors.Is(err, middleware.ErrUnauthenticated), isTokenError(err):
		abort(c, http.StatusUnauthorized, errorResponse{Message: authRequiredMessage})
	case errors.Is(err, listingapp.ErrListingNotOwned):
		abort(c, http.StatusForbidden, errorResponse{Message: "Not authorized"})
	case errors.Is(err, domainmessages.ErrNotParticipant):
		abort(c, http.StatusForbidden, errorResponse{Message: "Not a participant of this conversation"})
	case errors.Is(err, domainlistings.ErrNotFound):
		abort(c, http.StatusNotFound, errorResponse{Message: "Listing not found"})
	case errors.Is(err, domainmessages.ErrReceiverNotFound):
		abort(c, http.StatusNotFound, errorResponse{Message: "Receiver not found"})
	case errors.Is(err, domainuser.ErrNotFound), errors.Is(err, listingapp.ErrOwnerNotFound):
		abort(c, http.StatusNotFound, errorResponse{Message: "User not found"})
	case errors.Is(err, domainuser.ErrEmailAlreadyUsed):
		abort(c, http.StatusConflict, errorResponse{Message: "User already exists"})
	case errors.Is(err, middleware.ErrIdempotencyConflict):
		abort(c, http.StatusConflict, errorResponse{Message: "Idempotency-Key was used for a different request"})
	case errors.Is(err, listingapp.ErrUploadsDisabled):
		abort(c, http.StatusServiceUnavailable, errorResponse{Message: "Image uploads are unavailable"})
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		c.Abort()
	default:
		if logger != nil {
			logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		}
		abort(c, http.StatusInternalServerError, errorResponse{Message: "Server error"})
	}
}

func abort(c *gin.Context, status int, body errorResponse) {
	c.AbortWithStatusJSON(status, body)
}

func bindingFields(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		name := fieldPath(fe)
		if _, exists := out[name]; exists {
			continue
		}
		out[name] = bindingReason(fe)
	}
	return out
}

// fieldPath drops the root struct from the namespace: "req.location.city"
// becomes "location.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func bindingReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
