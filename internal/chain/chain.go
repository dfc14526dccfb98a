// Package chain reconstructs the display order of a project's columns from
// their next-pointers.
//
// Each element stores the id of the element displayed right after it; the
// last element stores Tail. Order starts at the tail, repeatedly looks up the
// element pointing at the one placed last, and reverses the result.
package chain

import (
	"errors"
	"fmt"
	"slices"
)

// Tail is the next-pointer of the last element.
const Tail int64 = -1

// ErrBrokenChain is returned when the pointers do not form a single path
// visiting every element exactly once.
var ErrBrokenChain = errors.New("column chain is broken")

// Linked is implemented by anything stored as a chain element.
type Linked interface {
	LinkID() int64
	LinkNext() int64
}

// Order returns items in display order. An empty input yields an empty
// result. Malformed chains (no tail, several tails, two elements sharing a
// successor, dangling pointers, cycles) fail with ErrBrokenChain instead of
// returning a partial ordering.
func Order[T Linked](items []T) ([]T, error) {
	if len(items) == 0 {
		return []T{}, nil
	}

	ids := make(map[int64]struct{}, len(items))
	byNext := make(map[int64]T, len(items))
	for _, it := range items {
		if _, dup := ids[it.LinkID()]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrBrokenChain, it.LinkID())
		}
		ids[it.LinkID()] = struct{}{}

		if prev, taken := byNext[it.LinkNext()]; taken {
			if it.LinkNext() == Tail {
				return nil, fmt.Errorf("%w: tails %d and %d", ErrBrokenChain, prev.LinkID(), it.LinkID())
			}
			return nil, fmt.Errorf("%w: %d and %d both point at %d", ErrBrokenChain, prev.LinkID(), it.LinkID(), it.LinkNext())
		}
		byNext[it.LinkNext()] = it
	}

	last, ok := byNext[Tail]
	if !ok {
		return nil, fmt.Errorf("%w: no tail", ErrBrokenChain)
	}

	out := make([]T, 0, len(items))
	out = append(out, last)
	for len(out) < len(items) {
		prev, ok := byNext[last.LinkID()]
		if !ok {
			break
		}
		out = append(out, prev)
		last = prev
	}
	if len(out) != len(items) {
		return nil, fmt.Errorf("%w: reached %d of %d columns", ErrBrokenChain, len(out), len(items))
	}

	slices.Reverse(out)
	return out, nil
}

// Validate checks that items form exactly one well-formed chain.
func Validate[T Linked](items []T) error {
	_, err := Order(items)
	return err
}

// IDs returns the ids of items in the given order.
func IDs[T Linked](items []T) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.LinkID()
	}
	return ids
}
