// Package apperror classifies failures of the purchase workflow so callers can
// branch on the kind of failure without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is the category of a workflow failure.
type Kind int

const (
	KindStore Kind = iota
	KindNotFound
	KindInsufficientStock
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInvalid:
		return "invalid"
	default:
		return "store_error"
	}
}

// Error is the typed error returned by services.
// Disponivel is only meaningful for KindInsufficientStock.
type Error struct {
	Kind       Kind
	Msg        string
	Disponivel int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so errors.Is(err, apperror.ErrNotFound) works for any
// NotFound error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == ""
}

// Sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrStore             = &Error{Kind: KindStore}
	ErrInvalid           = &Error{Kind: KindInvalid}
)

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStock reports the quantity that was available at check time.
func InsufficientStock(disponivel int) *Error {
	return &Error{
		Kind:       KindInsufficientStock,
		Msg:        fmt.Sprintf("Estoque insuficiente. Disponível: %d", disponivel),
		Disponivel: disponivel,
	}
}

func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

// Store wraps an underlying persistence failure. An *Error passed in is
// returned unchanged so business failures keep their kind through tx layers.
func Store(msg string, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, KindStore for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStore
}
