package util

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/response"
	"github.com/gofiber/fiber/v2"
)

type SuccessResponseFormat struct {
	Code       int
	Message    string
	Data       any
	Pagination *response.Pagination
	Meta       any
}

type OrderedSuccessResponse struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Meta       any                  `json:"meta,omitempty"`
	Pagination *response.Pagination `json:"pagination,omitempty"`
	Data       any                  `json:"data,omitempty"`
}

type ErrorResponseFormat struct {
	Code       int
	Message    string
	DevMessage string
	Details    any
	Trace      string
}

type OrderedErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DevMessage string `json:"dev_message,omitempty"`
	Details    any    `json:"details,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

type FormError struct {
	Errors  map[string]string
	Message string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("form error: %s", e.Message)
}

func NewFormError(message string, errors map[string]string) *FormError {
	return &FormError{
		Message: message,
		Errors:  errors,
	}
}

// SuccessResponse writes the standard success envelope.
func SuccessResponse(c *fiber.Ctx, params SuccessResponseFormat) error {
	response := OrderedSuccessResponse{
		Success:    true,
		Message:    params.Message,
		Data:       params.Data,
		Pagination: params.Pagination,
		Meta:       params.Meta,
	}
	code := params.Code
	if code == 0 {
		code = fiber.StatusOK
	}
	return c.Status(code).JSON(response)
}

// ErrorResponse writes the standard error envelope. Error details and traces
// are only exposed outside production.
func ErrorResponse(c *fiber.Ctx, params ErrorResponseFormat, errs ...error) error {
	response := OrderedErrorResponse{
		Success: false,
		Message: params.Message,
	}
	if params.Details != nil {
		response.Details = params.Details
	}
	if config.LoadAppConfig().Env != "production" {
		if len(errs) > 0 && errs[0] != nil {
			response.DevMessage = errs[0].Error()
			response.Trace = string(debug.Stack())
		}

		if params.DevMessage != "" {
			response.DevMessage = params.DevMessage
		}
		if params.Details != nil {
			response.Details = params.Details
		}
		if params.Trace != "" {
			response.Trace = params.Trace
		}
	}

	errorCode := params.Code
	if params.Code == 0 {
		errorCode = fiber.StatusInternalServerError
	}
	return c.Status(errorCode).JSON(response)
}

var kindStatus = map[apperror.Kind]int{
	apperror.KindValidation:        fiber.StatusUnprocessableEntity,
	apperror.KindUnsupportedFormat: fiber.StatusUnsupportedMediaType,
	apperror.KindNotFound:          fiber.StatusNotFound,
	apperror.KindConnectivity:      fiber.StatusServiceUnavailable,
	apperror.KindParse:             fiber.StatusBadGateway,
	apperror.KindScoring:           fiber.StatusBadGateway,
	apperror.KindExtraction:        fiber.StatusUnprocessableEntity,
}

// StatusFor maps an application error to its HTTP status.
func StatusFor(err error) int {
	if code, ok := kindStatus[apperror.KindOf(err)]; ok {
		return code
	}
	return fiber.StatusInternalServerError
}

// AppErrorResponse writes err using its kind for the status. Internal errors
// get a generic message, everything else the error's own message.
func AppErrorResponse(c *fiber.Ctx, err error, details ...any) error {
	code := StatusFor(err)
	message := "internal server error"
	var appErr *apperror.Error
	if code != fiber.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	}
	params := ErrorResponseFormat{Code: code, Message: message}
	if len(details) > 0 {
		params.Details = details[0]
	}
	return ErrorResponse(c, params, err)
}
