package chapter

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrOrderingKey is matched by every *OrderingKeyError via errors.Is.
var ErrOrderingKey = errors.New("no ordering key in filename")

// OrderingKeyError reports a filename without a parseable leading integer.
type OrderingKeyError struct {
	Filename string
	Err      error // underlying strconv error, if the digit run overflowed
}

func (e *OrderingKeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ordering key in filename %q: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("filename %q has no leading ordering key", e.Filename)
}

// Is reports whether target is ErrOrderingKey.
func (e *OrderingKeyError) Is(target error) bool {
	return target == ErrOrderingKey
}

func (e *OrderingKeyError) Unwrap() error {
	return e.Err
}

// ParseOrderingKey extracts the ordering key from a chapter filename: the value of
// its longest leading run of ASCII decimal digits.
//
//	"03-awakening.md" -> 3
//	"12.md"           -> 12
//	"intro.md"        -> *OrderingKeyError
func ParseOrderingKey(filename string) (int64, error) {
	end := 0
	for end < len(filename) && filename[end] >= '0' && filename[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, &OrderingKeyError{Filename: filename}
	}

	key, err := strconv.ParseInt(filename[:end], 10, 64)
	if err != nil {
		return 0, &OrderingKeyError{Filename: filename, Err: err}
	}
	return key, nil
}

// HasOrderingKey reports whether a filename starts with a decimal digit run.
func HasOrderingKey(filename string) bool {
	_, err := ParseOrderingKey(filename)
	return err == nil
}
