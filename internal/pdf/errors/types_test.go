package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrorTypeNotFound, "NOT_FOUND"},
		{ErrorTypePermissionDenied, "PERMISSION_DENIED"},
		{ErrorTypeCorruptDocument, "CORRUPT_DOCUMENT"},
		{ErrorTypeWrongPassword, "WRONG_PASSWORD"},
		{ErrorTypeCycleDetected, "CYCLE_DETECTED"},
		{ErrorTypeDanglingReference, "DANGLING_REFERENCE"},
		{ErrorTypeMalformedObject, "MALFORMED_OBJECT"},
		{ErrorTypeFileTooLarge, "FILE_TOO_LARGE"},
		{ErrorTypeInvalidPath, "INVALID_PATH"},
		{ErrorTypeInvalidArgument, "INVALID_ARGUMENT"},
		{ErrorType(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errType.String())
		})
	}
}

func TestErrorType_IsRecoverable(t *testing.T) {
	assert.True(t, ErrorTypeCycleDetected.IsRecoverable())
	assert.True(t, ErrorTypeDanglingReference.IsRecoverable())
	assert.True(t, ErrorTypeMalformedObject.IsRecoverable())

	assert.False(t, ErrorTypeNotFound.IsRecoverable())
	assert.False(t, ErrorTypeWrongPassword.IsRecoverable())
	assert.False(t, ErrorTypeCorruptDocument.IsRecoverable())
	assert.False(t, ErrorTypePermissionDenied.IsRecoverable())
}

func TestPDFError_IsThroughWrapping(t *testing.T) {
	cause := fs.ErrNotExist
	err := WrapError(ErrorTypeNotFound, "file does not exist", cause).WithPath("/tmp/a.pdf")
	wrapped := fmt.Errorf("get reader: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
	assert.True(t, stderrors.Is(wrapped, fs.ErrNotExist))
	assert.False(t, stderrors.Is(wrapped, ErrWrongPassword))
	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestPDFError_Error(t *testing.T) {
	err := NewPDFError(ErrorTypeDanglingReference, "reference points at a missing object").WithRef("12 0 R")
	assert.Equal(t, "[DANGLING_REFERENCE] reference points at a missing object (object 12 0 R)", err.Error())

	bare := &PDFError{Type: ErrorTypeWrongPassword, Path: "/x.pdf"}
	assert.Equal(t, "[WRONG_PASSWORD] WRONG_PASSWORD: /x.pdf", bare.Error())

	withCause := WrapError(ErrorTypeCorruptDocument, "cannot parse PDF", stderrors.New("no xref"))
	assert.Equal(t, "[CORRUPT_DOCUMENT] cannot parse PDF: no xref", withCause.Error())
	assert.False(t, withCause.Recoverable())
}

func TestFromFileError(t *testing.T) {
	notExist := &fs.PathError{Op: "open", Path: "/x.pdf", Err: fs.ErrNotExist}
	denied := &fs.PathError{Op: "open", Path: "/x.pdf", Err: fs.ErrPermission}

	assert.Equal(t, ErrorTypeNotFound, FromFileError(notExist, "/x.pdf").Type)
	assert.Equal(t, ErrorTypePermissionDenied, FromFileError(denied, "/x.pdf").Type)
	assert.Equal(t, ErrorTypeUnknown, FromFileError(fmt.Errorf("disk on fire"), "/x.pdf").Type)
	assert.True(t, stderrors.Is(FromFileError(notExist, "/x.pdf"), fs.ErrNotExist))
}
