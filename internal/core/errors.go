package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDistance = errors.New("invalid distance")
	ErrInvalidID       = errors.New("invalid record id")
	ErrInvalidDate     = errors.New("invalid record date")
	ErrDuplicateID     = errors.New("duplicate record id")
	ErrCorruptState    = errors.New("corrupt persisted state")
	ErrEmptyExport     = errors.New("nothing to export")
	ErrRender          = errors.New("render failed")
	ErrIO              = errors.New("persistence i/o failed")
	ErrUnknownIdentity = errors.New("identity not in roster")
)

// DuplicateIDError is returned when inserting a record whose id is already stored.
type DuplicateIDError struct {
	ID int64
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("record %d already exists", e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// CorruptStateError reports a persisted entry that failed to parse or validate.
// The store has already fallen back to an empty value for Key.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state under %q: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() []error { return []error{ErrCorruptState, e.Err} }

// RenderError wraps a renderer or output failure during export.
type RenderError struct {
	Renderer string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Renderer, e.Err)
}

func (e *RenderError) Unwrap() []error { return []error{ErrRender, e.Err} }

// IOError wraps a persistence backend failure.
type IOError struct {
	Op  string
	Key string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }
