package http

// TaskRequest documents the body accepted by create and update. Every field
// is optional on PATCH; title is required otherwise.
type TaskRequest struct {
	Title       string  `json:"title" example:"Buy milk"`
	Description string  `json:"description" example:"2 litres"`
	Status      string  `json:"status" example:"pending" enums:"pending,in-progress,done"`
	DueDate     *string `json:"dueDate" example:"2024-06-01"`
}

// ErrorResponse is the body of 404, 405 and 500 responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is the body of 400 responses.
type ValidationErrorResponse struct {
	Errors []string `json:"errors"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}
