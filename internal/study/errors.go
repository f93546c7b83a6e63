package study

import "errors"

// ErrInvalidAnswer is returned for answers whose quality is out of range or
// contradicts the correct flag
var ErrInvalidAnswer = errors.New("invalid answer")
