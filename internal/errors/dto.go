package errors

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail is what a client may see about a failure. RequestID ties the body to
// the server logs; InternalError is only filled in local deployments.
type ErrorDetail struct {
	Display       string         `json:"message"`
	RequestID     string         `json:"request_id,omitempty"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds a failed response that shows display to the client
func NewErrorResponse(display, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Display:   display,
			RequestID: requestID,
		},
	}
}
