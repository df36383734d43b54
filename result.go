package delivery

import "fmt"

// Code is a result code returned at the boundary of the delivery core,
// modelled on the broker's packets.Code: a small numeric value paired
// with a human-readable reason, comparable with errors.Is.
type Code struct {
	Reason string
	Value  byte
}

func (c Code) Error() string { return fmt.Sprintf("%s (%d)", c.Reason, c.Value) }

func (c Code) Is(target error) bool {
	t, ok := target.(Code)
	return ok && t.Value == c.Value
}

// Boundary result codes.
var (
	CodeSuccess        = Code{Value: 0, Reason: "success"}
	CodeDropped        = Code{Value: 2, Reason: "dropped"}
	CodeNoMem          = Code{Value: 10, Reason: "out of memory"}
	CodeInvalid        = Code{Value: 11, Reason: "invalid argument"}
	CodeProtocol       = Code{Value: 12, Reason: "protocol violation"}
	CodeNotFound       = Code{Value: 13, Reason: "not found"}
	CodeAlreadyExists  = Code{Value: 14, Reason: "already exists"}
	CodeNoSubscribers  = Code{Value: 15, Reason: "no subscribers"}
	CodeOversizePacket = Code{Value: 16, Reason: "oversize packet"}
)

// ErrNoMem, ErrInvalid etc. are error-typed aliases of the Code values
// above, for call sites that only care whether the call succeeded.
var (
	ErrNoMem          error = CodeNoMem
	ErrInvalid        error = CodeInvalid
	ErrProtocol       error = CodeProtocol
	ErrNotFound       error = CodeNotFound
	ErrAlreadyExists  error = CodeAlreadyExists
	ErrNoSubscribers  error = CodeNoSubscribers
	ErrOversizePacket error = CodeOversizePacket
)
