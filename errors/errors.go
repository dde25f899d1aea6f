package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stable machine-readable error codes. Clients branch on these, not on the
// transport status.
const (
	CodeInvalidCredentials      = 1001
	CodeUnauthorized            = 1002
	CodeTokenExpired            = 1003
	CodeInvalidToken            = 1004
	CodeInsufficientPermissions = 1005

	CodeUserNotFound      = 2001
	CodeUserAlreadyExists = 2002

	CodeOrderNotFound       = 3001
	CodeInvalidOrderStatus  = 3004
	CodeOrderNotCancellable = 3008
	CodeOrderStatusConflict = 3009

	CodePaymentFailed     = 4001
	CodePaymentProcessing = 4002

	CodeInvalidInput = 5001

	CodeInternalError = 9001
)

type registryEntry struct {
	message string
	status  int
}

// registry maps every code to its default message and HTTP status. Built
// once as a literal and only ever read.
var registry = map[int]registryEntry{
	CodeInvalidCredentials:      {"Invalid email or password", http.StatusUnauthorized},
	CodeUnauthorized:            {"Unauthorized access", http.StatusUnauthorized},
	CodeTokenExpired:            {"Authentication token has expired", http.StatusUnauthorized},
	CodeInvalidToken:            {"Invalid authentication token", http.StatusUnauthorized},
	CodeInsufficientPermissions: {"Insufficient permissions to perform this action", http.StatusForbidden},
	CodeUserNotFound:            {"User not found", http.StatusNotFound},
	CodeUserAlreadyExists:       {"User with this email already exists", http.StatusConflict},
	CodeOrderNotFound:           {"Order not found", http.StatusNotFound},
	CodeInvalidOrderStatus:      {"Invalid order status", http.StatusBadRequest},
	CodeOrderNotCancellable:     {"Order cannot be cancelled in current status", http.StatusBadRequest},
	CodeOrderStatusConflict:     {"Order was modified concurrently", http.StatusConflict},
	CodePaymentFailed:           {"Payment processing failed", http.StatusPaymentRequired},
	CodePaymentProcessing:       {"Error processing payment", http.StatusInternalServerError},
	CodeInvalidInput:            {"Invalid input provided", http.StatusBadRequest},
	CodeInternalError:           {"Internal server error", http.StatusInternalServerError},
}

// Error is an application error with a stable code. The wrapped cause is
// kept for logging and never serialized to clients.
type Error struct {
	Code    int    `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error for a registered code.
func New(code int) *Error {
	entry, ok := registry[code]
	if !ok {
		entry = registryEntry{"Unknown error", http.StatusInternalServerError}
	}
	return &Error{Code: code, Message: entry.message, Status: entry.status}
}

// WithDetails attaches caller-facing detail text.
func WithDetails(code int, details string) *Error {
	e := New(code)
	e.Details = details
	return e
}

// Wrap attaches an underlying cause while keeping the registered
// client-facing message.
func Wrap(code int, err error) *Error {
	e := New(code)
	e.Err = err
	return e
}

// ErrorMiddleware renders the last error recorded on the gin context.
// Unrecognized errors degrade to the internal-error code.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr, ok := err.(*Error)
		if !ok {
			appErr = Wrap(CodeInternalError, err)
		}
		c.JSON(appErr.Status, appErr)
		c.Abort()
	}
}
