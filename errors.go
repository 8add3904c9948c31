package secretshare

import "net/http"

// Error codes attached to AuthError values
const (
	ErrCodeMissingField    = "missing_field"
	ErrCodeInvalidCreds    = "invalid_credentials"
	ErrCodeUsernameTaken   = "username_taken"
	ErrCodeInvalidUsername = "invalid_username"
)

// AuthError carries a machine-readable failure code for login/signup
// flows. The Message is safe to show to end users; it never contains
// store-layer error text.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// AuthErrorHandler is called when login or signup fails. Returning true
// means the handler wrote the response (typically a redirect); false
// falls through to the default response.
type AuthErrorHandler func(err *AuthError, w http.ResponseWriter, r *http.Request) bool
