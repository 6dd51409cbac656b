// Package apperr holds the error taxonomy shared by the training pipeline and
// the inference wrapper. Every error is fatal for the current run.
package apperr

import (
	"errors"
	"fmt"
)

// SchemaError reports a required column that is absent from the input.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: missing required column %q", e.Column)
}

// ParseError reports a cell that cannot be coerced to its semantic type.
// Row is 1-based and counts data rows only; 0 means the row is unknown.
type ParseError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse: column %q", e.Column)
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	msg += fmt.Sprintf(": invalid value %q", e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// EncodingError reports a category value that was not seen when the encoder was fit.
type EncodingError struct {
	Column string
	Value  string
}

func (e *EncodingError) Error() string {
	col := e.Column
	if col == "" {
		col = "Category"
	}
	return fmt.Sprintf("encoding: unseen %s value %q", col, e.Value)
}

// DataQualityError reports data the numerical stages cannot work with.
type DataQualityError struct {
	Column string
	Reason string
}

func (e *DataQualityError) Error() string {
	if e.Column == "" {
		return "data quality: " + e.Reason
	}
	return fmt.Sprintf("data quality: column %q: %s", e.Column, e.Reason)
}

// ArtifactError reports a missing, corrupt or mismatched model artifact.
type ArtifactError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ArtifactError) Error() string {
	msg := fmt.Sprintf("artifact %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// ConfigError reports an invalid search grid or pipeline setting.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Param, e.Reason)
}

// IsClientError reports whether err was caused by the caller's input
// (schema, parse or encoding) rather than by the server side.
func IsClientError(err error) bool {
	var se *SchemaError
	var pe *ParseError
	var ee *EncodingError
	return errors.As(err, &se) || errors.As(err, &pe) || errors.As(err, &ee)
}
