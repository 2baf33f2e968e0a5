package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/agrosathi/agrosathi/pkg/errors"
)

const codeInternal = "internal_error"

// apiError is the transport view of a failure: the status, the code and the
// message a client may see. Err keeps the cause for the log only.
type apiError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *apiError) Unwrap() error {
	return e.Err
}

func badRequest(code, message string, err error) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: message, Err: err}
}

var statusByCode = map[string]int{
	apperrors.CodeInvalidInput:           http.StatusBadRequest,
	apperrors.CodeClassificationFailed:   http.StatusBadGateway,
	apperrors.CodeAdviceGenerationFailed: http.StatusBadGateway,
}

// toAPIError resolves any handler error to its response. Transport errors
// pass through, AppErrors are mapped by code with their own message, and
// anything else hides its detail behind internal_error.
func toAPIError(err error) *apiError {
	var transport *apiError
	if errors.As(err, &transport) {
		return transport
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if status, ok := statusByCode[appErr.Code]; ok {
			return &apiError{Status: status, Code: appErr.Code, Message: appErr.Message, Err: err}
		}
	}
	return &apiError{
		Status:  http.StatusInternalServerError,
		Code:    codeInternal,
		Message: "something went wrong",
		Err:     err,
	}
}

// fail records err for errorHandlingMiddleware and stops the chain.
func fail(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
