package auth

// Error is an authentication failure with a stable code for clients.
type Error struct {
	code    string
	message string
}

func (e *Error) Error() string { return e.message }

// Code is sent to websocket clients in the error event.
func (e *Error) Code() string { return e.code }

var (
	ErrAuthDisabled      = &Error{code: "auth_unavailable", message: "authentication is not configured"}
	ErrInvalidToken      = &Error{code: "invalid_token", message: "invalid or expired token"}
	ErrUserNotFound      = &Error{code: "unknown_user", message: "user not found"}
	ErrAccountSuspended  = &Error{code: "account_suspended", message: "account is suspended"}
	ErrInvalidCredential = &Error{code: "invalid_credentials", message: "invalid email or password"}
)
