package handlers

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.Code.
const (
	CodeValidation   = "validation_error"
	CodeBadRequest   = "bad_request"
	CodeStreamFailed = "stream_unavailable"
)
