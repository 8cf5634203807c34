package tracker

import (
	"errors"
	"fmt"
	"slices"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// Move removes the element at from and reinserts it at to, where to indexes
// the sequence after the removal. seq is never modified.
func Move[T any](seq []T, from, to int) ([]T, error) {
	n := len(seq)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("%w: move %d -> %d in list of %d", ErrIndexOutOfRange, from, to, n)
	}
	out := slices.Clone(seq)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item), nil
}
