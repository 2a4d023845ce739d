package types

// SuccessEnvelope wraps every successful response body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Details only appear for codes that
// allow them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failure response body as {"error": ...}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
