package solver

import "errors"

// ErrInvalidInput is wrapped by every validation failure of the Solver API:
// unparsable card tokens, the wrong number of cards, or repeated cards.
// Validation happens before any recursion starts.
var ErrInvalidInput = errors.New("invalid input")
