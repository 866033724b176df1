package response

// StandardApiResponse is the envelope every endpoint writes. Clients key off
// Status before touching Data, so conflict payloads (unavailable seats, hold
// mismatches) ride in Errors while Data stays empty.
type StandardApiResponse struct {
	Status     string      `json:"status"`           // "success" or "error"
	StatusCode int         `json:"status_code"`      // mirrors the HTTP status
	Message    string      `json:"message"`          // human-readable summary
	Data       interface{} `json:"data,omitempty"`   // payload on success
	Errors     interface{} `json:"errors,omitempty"` // conflict or validation details
}
