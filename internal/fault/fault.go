package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindNetwork
	KindAPI
	KindProtocol
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindNetwork:
		return "network error"
	case KindAPI:
		return "api error"
	case KindProtocol:
		return "protocol error"
	case KindIO:
		return "io error"
	default:
		return "error"
	}
}

// Error is the single error type surfaced to callers. Status is only set for
// KindAPI.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Kind == KindAPI && e.Status != 0 {
		msg = fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	if e.Err != nil {
		if msg == "" {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by kind so errors.Is(err, &Error{Kind: KindIO}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t.Kind == e.Kind
}

func Configf(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func Config(msg string, err error) error {
	return &Error{Kind: KindConfiguration, Message: msg, Err: err}
}

func Network(msg string, err error) error {
	return &Error{Kind: KindNetwork, Message: msg, Err: err}
}

func API(status int, msg string) error {
	return &Error{Kind: KindAPI, Status: status, Message: msg}
}

func Protocolf(format string, args ...any) error {
	return &Error{Kind: KindProtocol, Message: fmt.Sprintf(format, args...)}
}

func Protocol(msg string, err error) error {
	return &Error{Kind: KindProtocol, Message: msg, Err: err}
}

func IO(msg string, err error) error {
	return &Error{Kind: KindIO, Message: msg, Err: err}
}

func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by an API error, or 0.
func StatusOf(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindConfiguration:
		return 2
	case KindNetwork:
		return 3
	case KindAPI:
		return 4
	case KindProtocol:
		return 5
	case KindIO:
		return 6
	default:
		return 1
	}
}
