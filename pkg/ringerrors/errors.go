package ringerrors

import "errors"

var (
	ErrInvalidArgument = errors.New("conhash: invalid argument")
	ErrNonNumericID    = errors.New("conhash: non-numeric node identifier")
	ErrEmptyRing       = errors.New("conhash: ring is empty")
)
