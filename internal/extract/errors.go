package extract

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a specific extraction failure so callers can branch
// on it (re-upload vs unsupported type vs internal problem).
type ErrorCode string

const (
	CodeInvalidFile          ErrorCode = "INVALID_FILE"
	CodeUnsupportedType      ErrorCode = "UNSUPPORTED_TYPE"
	CodeFileTooLarge         ErrorCode = "FILE_TOO_LARGE"
	CodeEmptyFile            ErrorCode = "EMPTY_FILE"
	CodePDFExtractionFailed  ErrorCode = "PDF_EXTRACTION_FAILED"
	CodeWordExtractionFailed ErrorCode = "WORD_EXTRACTION_FAILED"
	CodeNoTextExtracted      ErrorCode = "NO_TEXT_EXTRACTED"
	CodeInvalidResult        ErrorCode = "INVALID_RESULT"
	CodeUnknown              ErrorCode = "UNKNOWN_ERROR"
)

// Error is the only error type Extract returns. Message is safe to show to
// the end user; Err keeps the underlying cause for logs.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf returns the extraction error code of err, or CodeUnknown when err is
// not an extraction error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
