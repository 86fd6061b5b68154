package dto

// MessageResponse is the body of a successful mutation.
type MessageResponse struct {
	Message string `json:"message"`
	ID      *int64 `json:"id,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// ErrorResponse is the domain services' error body.
type ErrorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}
