package graph

import (
	"errors"
	"strings"
)

var (
	// ErrConnectionConflict is returned if an input already has a
	// connected output. The caller must disconnect first.
	ErrConnectionConflict = errors.New("input is already connected")

	// ErrInvalidConnection is returned if two ports cannot form a valid
	// directed pairing, e.g. an audio output and a control input.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrBlockSizeMismatch is returned from Process if the connected
	// inputs of a node disagree on block length.
	ErrBlockSizeMismatch = errors.New("block size mismatch")

	// ErrInvalidCoefficients is returned if a filter is constructed with
	// a degenerate denominator.
	ErrInvalidCoefficients = errors.New("invalid filter coefficients")
)

// execErrors wraps errors that might occure when multiple nodes
// are failing within a single tick.
type execErrors []error

func (e execErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of collected errors match provided sentinel error.
func (e execErrors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// ret returns untyped nil if error list is empty.
func (e execErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
