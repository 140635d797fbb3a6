package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindGateway
)

// Error adalah error bisnis yang aman ditampilkan ke client.
// Cause tidak pernah dikirim ke client, hanya di-log.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Unauthorized() *Error { return &Error{Kind: KindUnauthorized, Message: "Unauthorized"} }

func Forbidden() *Error { return &Error{Kind: KindForbidden, Message: "access denied"} }

func Gateway(cause error) *Error {
	return &Error{Kind: KindGateway, Message: "Payment processing failed. Please try again.", Cause: cause}
}

// KindOf mengembalikan KindInternal untuk error yang tidak diklasifikasi.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }
