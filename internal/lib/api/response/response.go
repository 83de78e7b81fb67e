package response

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func OK(data any) Response {
	return Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

func OKMessage(msg string) Response {
	return Response{
		Status:  StatusSuccess,
		Message: msg,
	}
}

func Success(msg string, data any) Response {
	return Response{
		Status:  StatusSuccess,
		Message: msg,
		Data:    data,
	}
}

func Error(msg string) Response {
	return Response{
		Status:  StatusError,
		Message: msg,
	}
}

func FieldErrors(msg string, errs map[string]string) Response {
	return Response{
		Status:  StatusError,
		Message: msg,
		Errors:  errs,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	fields := make(map[string]string, len(errs))

	for _, err := range errs {
		if _, seen := fields[err.Field()]; seen {
			continue
		}

		switch err.ActualTag() {
		case "required":
			fields[err.Field()] = "is required"
		case "email":
			fields[err.Field()] = "must be a valid email address"
		case "min":
			fields[err.Field()] = fmt.Sprintf("must be at least %s characters", err.Param())
		case "max":
			fields[err.Field()] = fmt.Sprintf("may not be greater than %s characters", err.Param())
		case "oneof":
			fields[err.Field()] = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(err.Param(), " ", ", "))
		default:
			fields[err.Field()] = "is invalid"
		}
	}

	return FieldErrors("Validation failed.", fields)
}

// NewValidator returns a validator reporting fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	return v
}

// Send writes an envelope with the given status code.
func Send(w http.ResponseWriter, r *http.Request, status int, body Response) {
	render.Status(r, status)
	render.JSON(w, r, body)
}
