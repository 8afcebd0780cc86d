package dto

// Response is the envelope every endpoint answers with
type Response struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// NewResponse builds an envelope; success is derived from the status code
func NewResponse(code int, message string, data any) Response {
	return Response{
		Code:    code,
		Success: code < 400,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse builds a failure envelope with error details
func NewErrorResponse(code int, message string, errs any) Response {
	return Response{
		Code:    code,
		Success: false,
		Message: message,
		Errors:  errs,
	}
}

// FieldError describes one invalid request field
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}
