package errors

import (
	"fmt"
	"os"
)

// ErrorType represents the categories of failure the inspector distinguishes
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeNotFound
	ErrorTypePermissionDenied
	ErrorTypeCorruptDocument
	ErrorTypeWrongPassword
	ErrorTypeCycleDetected
	ErrorTypeDanglingReference
	ErrorTypeMalformedObject
	ErrorTypeFileTooLarge
	ErrorTypeInvalidPath
	ErrorTypeInvalidArgument
)

// Sentinels for errors.Is matching. Only the Type is compared.
var (
	ErrNotFound          = &PDFError{Type: ErrorTypeNotFound}
	ErrPermissionDenied  = &PDFError{Type: ErrorTypePermissionDenied}
	ErrCorruptDocument   = &PDFError{Type: ErrorTypeCorruptDocument}
	ErrWrongPassword     = &PDFError{Type: ErrorTypeWrongPassword}
	ErrCycleDetected     = &PDFError{Type: ErrorTypeCycleDetected}
	ErrDanglingReference = &PDFError{Type: ErrorTypeDanglingReference}
	ErrMalformedObject   = &PDFError{Type: ErrorTypeMalformedObject}
	ErrFileTooLarge      = &PDFError{Type: ErrorTypeFileTooLarge}
	ErrInvalidPath       = &PDFError{Type: ErrorTypeInvalidPath}
	ErrInvalidArgument   = &PDFError{Type: ErrorTypeInvalidArgument}
)

// PDFError is a typed failure carrying the file and object it concerns
type PDFError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	Ref     string    `json:"ref,omitempty"`
	Err     error     `json:"-"`
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypePermissionDenied:
		return "PERMISSION_DENIED"
	case ErrorTypeCorruptDocument:
		return "CORRUPT_DOCUMENT"
	case ErrorTypeWrongPassword:
		return "WRONG_PASSWORD"
	case ErrorTypeCycleDetected:
		return "CYCLE_DETECTED"
	case ErrorTypeDanglingReference:
		return "DANGLING_REFERENCE"
	case ErrorTypeMalformedObject:
		return "MALFORMED_OBJECT"
	case ErrorTypeFileTooLarge:
		return "FILE_TOO_LARGE"
	case ErrorTypeInvalidPath:
		return "INVALID_PATH"
	case ErrorTypeInvalidArgument:
		return "INVALID_ARGUMENT"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether the failure is folded into a partial result
// instead of failing the call
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeCycleDetected, ErrorTypeDanglingReference, ErrorTypeMalformedObject:
		return true
	default:
		return false
	}
}

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Type.String()
	}
	if e.Ref != "" {
		msg = fmt.Sprintf("%s (object %s)", msg, e.Ref)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap exposes the underlying cause
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is matches any PDFError of the same type
func (e *PDFError) Is(target error) bool {
	t, ok := target.(*PDFError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Recoverable reports whether this error is recovered locally
func (e *PDFError) Recoverable() bool {
	return e.Type.IsRecoverable()
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:    errorType,
		Message: message,
	}
}

// WrapError wraps a cause as a PDFError of the given type
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	return &PDFError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// WithPath adds file path information to an existing PDFError
func (e *PDFError) WithPath(path string) *PDFError {
	e.Path = path
	return e
}

// WithRef adds the object reference an error concerns
func (e *PDFError) WithRef(ref string) *PDFError {
	e.Ref = ref
	return e
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	for err != nil {
		if pe, ok := err.(*PDFError); ok {
			return pe.Type
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ErrorTypeUnknown
		}
		err = u.Unwrap()
	}
	return ErrorTypeUnknown
}

// FromFileError maps a filesystem error onto NotFound, PermissionDenied or
// Unknown
func FromFileError(err error, path string) *PDFError {
	switch {
	case os.IsNotExist(err):
		return WrapError(ErrorTypeNotFound, "file does not exist", err).WithPath(path)
	case os.IsPermission(err):
		return WrapError(ErrorTypePermissionDenied, "file is not readable", err).WithPath(path)
	default:
		return WrapError(ErrorTypeUnknown, "cannot access file", err).WithPath(path)
	}
}
