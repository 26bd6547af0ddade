// Package validate provides guard functions for numeric and enumerated
// command arguments. Nothing here mutates state; a failed check returns an
// *Error describing the calling operation, the value and what was allowed.
package validate

import (
	"cmp"
	"fmt"
	"strings"
)

// DefaultArgument is used when the caller does not name the argument.
const DefaultArgument = "Argument"

// Bounds is an inclusive [Min, Max] range.
type Bounds[T cmp.Ordered] struct {
	Min T
	Max T
}

// Span is shorthand for Bounds{Min: min, Max: max}.
func Span[T cmp.Ordered](min, max T) Bounds[T] {
	return Bounds[T]{Min: min, Max: max}
}

// Contains reports whether v lies within the bounds, both ends included.
func (b Bounds[T]) Contains(v T) bool {
	return v >= b.Min && v <= b.Max
}

func (b Bounds[T]) String() string {
	return fmt.Sprintf("%v-%v", b.Min, b.Max)
}

// Error is returned when an argument is out of range or not a permitted value.
type Error struct {
	Source   string
	Argument string
	Value    any
	Allowed  string
	enum     bool
}

func (e *Error) Error() string {
	if e.enum {
		return fmt.Sprintf("%s given to %s must be one of [%s], but '%v' was given.",
			e.Argument, e.Source, e.Allowed, e.Value)
	}
	return fmt.Sprintf("%s given to %s must be in %s, but %v was given.",
		e.Argument, e.Source, e.Allowed, e.Value)
}

// Range checks that min <= v <= max.
func Range[T cmp.Ordered](source, argument string, v, min, max T) error {
	return RangeUnion(source, argument, v, Span(min, max))
}

// RangeUnion checks that v falls inside at least one of the given ranges.
func RangeUnion[T cmp.Ordered](source, argument string, v T, ranges ...Bounds[T]) error {
	for _, r := range ranges {
		if r.Contains(v) {
			return nil
		}
	}
	return &Error{
		Source:   source,
		Argument: argumentName(argument),
		Value:    v,
		Allowed:  describeRanges(ranges),
	}
}

// Enum checks that v is exactly one of allowed.
func Enum[T comparable](source, argument string, v T, allowed ...T) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = fmt.Sprint(a)
	}
	return &Error{
		Source:   source,
		Argument: argumentName(argument),
		Value:    v,
		Allowed:  strings.Join(names, ", "),
		enum:     true,
	}
}

// describeRanges renders "range 1-2", "range 1-2 or 4-6" or
// "range 1-2, 4-6 or 8-9".
func describeRanges[T cmp.Ordered](ranges []Bounds[T]) string {
	var sb strings.Builder
	sb.WriteString("range ")
	for i, r := range ranges {
		sb.WriteString(r.String())
		switch {
		case i == len(ranges)-1:
		case i == len(ranges)-2:
			sb.WriteString(" or ")
		default:
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

func argumentName(argument string) string {
	if argument == "" {
		return DefaultArgument
	}
	return argument
}
