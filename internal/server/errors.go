package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vtk-it/declaro/internal/auth/token"
	billdomain "github.com/vtk-it/declaro/internal/bill/domain"
	profiledomain "github.com/vtk-it/declaro/internal/profile/domain"
	"github.com/vtk-it/declaro/internal/report"
	"github.com/vtk-it/declaro/internal/storage"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if field, ok := validationField(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   field,
					Code:    err.Error(),
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, profiledomain.ErrBadCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, billdomain.ErrForbidden),
		errors.Is(err, profiledomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, billdomain.ErrBillPaid):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "bill is paid and locked for edits",
		}
	case errors.Is(err, profiledomain.ErrEmailTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, report.ErrUnsupportedAssetType),
		errors.Is(err, billdomain.ErrUnsupportedReceiptType):
		return http.StatusBadRequest, errorPayload{
			Type:    "unsupported_asset_type",
			Message: "receipt type not supported",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationField(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "request", true
	case errors.Is(err, billdomain.ErrInvalidID):
		return "id", true
	case errors.Is(err, billdomain.ErrInvalidName):
		return "name", true
	case errors.Is(err, billdomain.ErrInvalidPost), errors.Is(err, profiledomain.ErrInvalidPost),
		errors.Is(err, profiledomain.ErrInvalidAllowedPost):
		return "post", true
	case errors.Is(err, billdomain.ErrInvalidAmount):
		return "amount", true
	case errors.Is(err, billdomain.ErrInvalidPaymentMethod):
		return "payment_method", true
	case errors.Is(err, billdomain.ErrMissingIBAN):
		return "iban", true
	case errors.Is(err, billdomain.ErrMissingReceipt):
		return "receipt", true
	case errors.Is(err, profiledomain.ErrInvalidEmail):
		return "email", true
	case errors.Is(err, profiledomain.ErrInvalidPassword):
		return "password", true
	default:
		return "", false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, billdomain.ErrNotFound),
		errors.Is(err, profiledomain.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog labels request errors for the access log without
// leaking message details.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= 500:
		return "server_error", payload.Type
	case status >= 400:
		return "client_error", payload.Type
	default:
		return "", ""
	}
}
