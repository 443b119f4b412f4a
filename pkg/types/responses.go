package types

// FieldError describes a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Response is the envelope for single-resource operations
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// ListResponse is the envelope for paginated list operations
type ListResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Pages   int         `json:"pages"`
	Data    interface{} `json:"data"`
}
