package backend

import (
	"errors"

	"github.com/p-n-ai/pai-lms/internal/lesson"
)

// Error codes carried in ErrorResponse so a client can recover the sentinel.
const (
	CodeNotFound        = "not_found"
	CodePathOutOfRange  = "path_out_of_range"
	CodeInvalidPath     = "invalid_path"
	CodeInvalidLevel    = "invalid_level"
	CodeInvalidDocument = "invalid_document"
	CodeInvalidQuestion = "invalid_question"
	CodeValidation      = "validation"
)

// ErrorResponse is the JSON body of every failed API request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

var codes = []struct {
	code string
	err  error
}{
	{CodeNotFound, ErrNotFound},
	{CodePathOutOfRange, lesson.ErrPathOutOfRange},
	{CodeInvalidPath, lesson.ErrInvalidPath},
	{CodeInvalidLevel, lesson.ErrInvalidLevel},
	{CodeInvalidDocument, lesson.ErrInvalidDocument},
	{CodeValidation, lesson.ErrInvalidNode},
	{CodeInvalidQuestion, lesson.ErrInvalidQuestion},
}

// Code returns the error code for err, or "" if it has none.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// sentinel maps a code back to its error.
func sentinel(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
