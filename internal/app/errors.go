package app

import (
	"errors"
	"fmt"
	"strings"

	"knowledge-governance/internal/model"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrComplianceBlock = errors.New("compliance block")
	ErrAuthorization   = errors.New("not authorized")
	ErrStateConflict   = errors.New("state conflict")
	ErrNotFound        = errors.New("not found")
)

// ValidationError lists the fields that failed a metadata or input check.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := ErrValidation.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Fields) > 0 {
		msg += " [" + strings.Join(e.Fields, ", ") + "]"
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationErr(reason string, fields ...string) error {
	return &ValidationError{Reason: reason, Fields: fields}
}

// ComplianceBlockError reports positive PII answers. The document stays in DRAFT.
type ComplianceBlockError struct {
	DocumentID string
	Positive   []string
}

func (e *ComplianceBlockError) Error() string {
	if len(e.Positive) == 0 {
		return fmt.Sprintf("%s: document %s has no clear pii check", ErrComplianceBlock, e.DocumentID)
	}
	return fmt.Sprintf("%s: document %s flagged %s", ErrComplianceBlock, e.DocumentID, strings.Join(e.Positive, ", "))
}

func (e *ComplianceBlockError) Unwrap() error { return ErrComplianceBlock }

// StateConflictError is returned for transitions the current state does not allow.
type StateConflictError struct {
	From   string
	To     string
	Reason string
}

func (e *StateConflictError) Error() string {
	msg := fmt.Sprintf("%s: %s -> %s is not allowed", ErrStateConflict, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *StateConflictError) Unwrap() error { return ErrStateConflict }

func transitionErr(from, to model.DocumentStatus) error {
	return &StateConflictError{From: string(from), To: string(to)}
}
