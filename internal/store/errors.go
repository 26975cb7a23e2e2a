package store

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Kind classifies a persistence failure by how the caller should react.
type Kind int

const (
	// KindFatal covers connectivity and corruption failures; the caller
	// may halt the pipeline.
	KindFatal Kind = iota
	// KindConstraint covers duplicate/constraint violations; benign for
	// upsert-shaped writes.
	KindConstraint
	// KindTransient covers lock contention and similar retryable
	// conditions.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindConstraint:
		return "constraint"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// ClassifiedError wraps a store error with its classification.
type ClassifiedError struct {
	Kind Kind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Kind, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify wraps err with the failure kind the write path should report.
// Already-classified errors pass through unchanged.
func Classify(err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_CONSTRAINT:
			return &ClassifiedError{Kind: KindConstraint, Err: err}
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return &ClassifiedError{Kind: KindTransient, Err: err}
		default:
			return &ClassifiedError{Kind: KindFatal, Err: err}
		}
	}

	// Drivers that do not expose typed codes still name the condition.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "constraint") || strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate"):
		return &ClassifiedError{Kind: KindConstraint, Err: err}
	case strings.Contains(msg, "busy") || strings.Contains(msg, "locked") ||
		strings.Contains(msg, "timeout"):
		return &ClassifiedError{Kind: KindTransient, Err: err}
	default:
		return &ClassifiedError{Kind: KindFatal, Err: err}
	}
}
