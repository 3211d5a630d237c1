package utils

import (
	"encoding/json"
	"net/http"
)

type Response struct {
	Status  bool   `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// ResponseJSON writes JSON response with custom status code
func ResponseJSON(w http.ResponseWriter, code int, status bool, errCode, message string, data, errs any) {
	response := Response{
		Status:  status,
		Code:    errCode,
		Message: message,
		Data:    data,
		Errors:  errs,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

// ------------- Success responses -------------

// returns 200 OK
func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusOK, true, "", message, data, nil)
}

// returns 201 Created
func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusCreated, true, "", message, data, nil)
}

// ------------- Error responses -------------

// returns 400 Bad Request
func ResponseBadRequest(w http.ResponseWriter, message string, errs any) {
	ResponseJSON(w, http.StatusBadRequest, false, CodeValidationError, message, nil, errs)
}

// returns 401 Unauthorized
func ResponseUnauthorized(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusUnauthorized, false, "UNAUTHORIZED", message, nil, nil)
}

// returns 403 Forbidden
func ResponseForbidden(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusForbidden, false, CodePolicyViolation, message, nil, nil)
}

// returns 404 Not Found
func ResponseNotFound(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusNotFound, false, CodeNotFound, message, nil, nil)
}

// returns 409 Conflict
func ResponseConflict(w http.ResponseWriter, code, message string) {
	ResponseJSON(w, http.StatusConflict, false, code, message, nil, nil)
}

// returns 410 Gone
func ResponseGone(w http.ResponseWriter, code, message string) {
	ResponseJSON(w, http.StatusGone, false, code, message, nil, nil)
}

// returns 422 Unprocessable Entity
func ResponseUnprocessable(w http.ResponseWriter, code, message string) {
	ResponseJSON(w, http.StatusUnprocessableEntity, false, code, message, nil, nil)
}

// returns 500 Internal Server Error
func ResponseInternalError(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusInternalServerError, false, "INTERNAL_ERROR", message, nil, nil)
}

// Stable error codes for calling UIs. Each domain error kind maps to
// exactly one code.
const (
	CodeConflict        = "CONFLICT"
	CodeInvalidState    = "INVALID_STATE"
	CodeNotFound        = "NOT_FOUND"
	CodeExpired         = "EXPIRED"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodePolicyViolation = "POLICY_VIOLATION"
	CodeValidationError = "VALIDATION_ERROR"
)
