package bench

import (
	"errors"
	"fmt"
)

var ErrInvalidSizing = errors.New("invalid pool sizing")

func (s PoolSizing) Validate() error {
	switch {
	case s.Max < 1:
		return fmt.Errorf("%w: max %d < 1", ErrInvalidSizing, s.Max)
	case s.Min < 0 || s.Min > s.Max:
		return fmt.Errorf("%w: min %d outside [0, %d]", ErrInvalidSizing, s.Min, s.Max)
	case s.Increment < 1:
		return fmt.Errorf("%w: increment %d < 1", ErrInvalidSizing, s.Increment)
	}
	return nil
}

// Grow returns how many sessions a pool holding open sessions, idle of them
// unused, should open before handing one out.
func (s PoolSizing) Grow(idle, open int) int {
	if idle > 0 {
		return 0
	}
	n := s.Increment
	if open+n > s.Max {
		n = s.Max - open
	}
	if n < 0 {
		return 0
	}
	return n
}

// Warm returns how many sessions a fresh pool must open to reach Min.
func (s PoolSizing) Warm(open int) int {
	if open >= s.Min {
		return 0
	}
	return s.Min - open
}
