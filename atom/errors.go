package atom

import (
	"errors"
	"fmt"
)

// UnsupportedOperation occurs when an operation, usually execute, is
// requested of a Grounded value that doesn't provide it.
type UnsupportedOperation struct {
	Op    string
	Value string
}

func (e *UnsupportedOperation) Error() string {
	return `unsupported operation "` + e.Op + `" on "` + e.Value + `"`
}

// UnknownGroundedType occurs when decoding encounters a grounded
// form with no registered Decoder.
type UnknownGroundedType struct {
	Type string
}

func (e *UnknownGroundedType) Error() string {
	return `unknown grounded type "` + e.Type + `"`
}

// BadForm occurs when a decoded value has no term representation.
type BadForm struct {
	X interface{}
}

func (e *BadForm) Error() string {
	return fmt.Sprintf("bad atom form %#v (%T)", e.X, e.X)
}

// NotEncodable is returned when a Grounded value has no Encoder.
var NotEncodable = errors.New("grounded value is not encodable")
