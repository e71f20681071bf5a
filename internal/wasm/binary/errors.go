package binary

import "fmt"

// ErrInvalidByte is returned when a byte that must be one of a small fixed set (a kind
// tag, an element type, a boolean limits flag) has an unexpected value.
var ErrInvalidByte = fmt.Errorf("invalid byte")
