package error

import "errors"

// Returned when a context value does not hold the type a handler expects.
// Always indicates a missing or misordered middleware.
var ErrTypeAssertMismatch = errors.New("type assertion mismatch on context value")
