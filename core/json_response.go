package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wanderkit/wanderkit/pkg/validator"
)

// ErrorDetail is the error payload of every failed API response:
// {"error":{"code":..., "message":..., "details":{field:[messages]}}}.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type errorBody struct {
	Error ErrorDetail `json:"error"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON creates a JSON response with the given status and payload.
func JSON(status int, data any) Response {
	return jsonResponse{status: status, body: data}
}

// JSONError shapes any error into the structured error body. Validation
// errors become 400 with field details, HTTPErrors keep their status and
// code, everything else collapses to a 500 without leaking internals.
func JSONError(err error) Response {
	detail := ErrorDetail{
		Code:    ErrInternalServer.Code,
		Message: http.StatusText(http.StatusInternalServerError),
	}
	status := http.StatusInternalServerError

	if ve := validator.ExtractValidationErrors(err); ve != nil {
		status = http.StatusBadRequest
		detail.Code = "VALIDATION_FAILED"
		detail.Message = "request validation failed"
		detail.Details = ve.Fields()
	} else {
		var httpErr HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Status
			detail.Code = httpErr.Code
			detail.Message = httpErr.Error()
		}
	}

	return jsonResponse{status: status, body: errorBody{Error: detail}}
}
