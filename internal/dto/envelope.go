package dto

// Envelope is the uniform response body for every endpoint, success or error.
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Error      any    `json:"error,omitempty"`
	Count      *int64 `json:"count,omitempty"`
}

// ListQuery carries the generic list parameters: attr/value filtering against
// an allow-list, order ("field" or "-field") and limit/offset paging.
type ListQuery struct {
	Attr   string `form:"attr"`
	Value  string `form:"value"`
	Order  string `form:"order"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging values to sane bounds.
func (q *ListQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// ErrorBody is the "error" member of a failed envelope.
type ErrorBody struct {
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}
