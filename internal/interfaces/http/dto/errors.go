package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Calculation
// failure codes only appear here for the paths where they abort a request;
// inside batch results they travel as data with a 200.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,

	"NOT_FOUND":     http.StatusNotFound,
	"INVALID_INPUT": http.StatusBadRequest,
	"INVALID_STATE": http.StatusConflict,
	"UNAVAILABLE":   http.StatusServiceUnavailable,

	"PERIOD_NOT_FOUND":            http.StatusNotFound,
	"CATEGORY_ASSIGNMENT_MISSING": http.StatusUnprocessableEntity,
	"CONTRIBUTION_BASE_MISSING":   http.StatusUnprocessableEntity,
	"RULE_MISSING":                http.StatusUnprocessableEntity,
	"PAYROLL_RECORD_MISSING":      http.StatusUnprocessableEntity,
	"UNKNOWN_INSURANCE_TYPE":      http.StatusBadRequest,
	"RULE_CATALOG_UNAVAILABLE":    http.StatusServiceUnavailable,
	"DATA_STORE_TIMEOUT":          http.StatusGatewayTimeout,
	"WRITE_CHUNK_FAILED":          http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
