package combinator

import (
	"errors"
	"fmt"
	"regexp"
)

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the combinator library.
//
// The library implements PEG-style parsing: a Parser is a pure function from a source
// cursor to an optional parse result, and bigger parsers are put together from smaller
// ones through the combinators below (ordered choice, sequencing, repetition, ...).
// Backtracking comes for free since a parser never mutates the cursor it receives:
// a failed attempt simply discards the cursor it advanced internally.
//
// A parser that finds no match at the cursor produces a "miss" (a nil result), which
// ordered choice and repetition recover from. A non-nil error is fatal instead and
// unwinds the whole parse; only Error (and an undefined ForwardRef) ever produce one.

// ----------------------------------------------------------------------------
// Source cursor

// Source is an immutable cursor over the input: the full content plus the byte
// index the next match is anchored at. Matching never mutates a Source, it hands
// back a new one advanced past the matched text.
type Source struct {
	Content string // The whole input being parsed, shared by every cursor
	Index   int    // Byte offset the next match must start at
}

// Match applies a regular expression at the exact current index ("sticky" matching).
//
// The pattern is expected to be anchored with a leading '^' (Regexp takes care of
// that): applying it to the tail slice starting at Index means it can only match
// right at the cursor, never by scanning forward. A non-match yields a nil result.
func (s Source) Match(re *regexp.Regexp) *Result[string] {
	loc := re.FindStringIndex(s.Content[s.Index:])
	if loc == nil {
		return nil
	}

	value := s.Content[s.Index : s.Index+loc[1]]
	return &Result[string]{Value: value, Source: Source{Content: s.Content, Index: s.Index + loc[1]}}
}

// ----------------------------------------------------------------------------
// Parse results

// Result pairs the value produced by a successful parse with the cursor pointing
// right after the consumed input. A miss is represented by the absence of a Result
// (a nil pointer), not by a Result with a zero value.
type Result[T any] struct {
	Value  T      // The value the parser produced
	Source Source // The cursor right after the consumed input
}

// ----------------------------------------------------------------------------
// Parser

// Parser wraps a pure parse function from cursor to optional result.
//
// The contract is: (result, nil) on success, (nil, nil) on a miss and (nil, err)
// on a fatal parse error. Every combinator in this package preserves it.
type Parser[T any] struct {
	parse func(Source) (*Result[T], error)
}

// NewParser wraps a raw parse function into a Parser.
func NewParser[T any](parse func(Source) (*Result[T], error)) Parser[T] {
	return Parser[T]{parse: parse}
}

// Parse runs the parser against the given cursor.
func (p Parser[T]) Parse(s Source) (*Result[T], error) {
	return p.parse(s)
}

// ----------------------------------------------------------------------------
// Primitives

// Regexp succeeds with the matched text iff the pattern matches at the cursor.
//
// The pattern is compiled once, anchored as '^(?:pattern)' so that grouping and
// alternation inside it cannot leak past the anchor.
func Regexp(pattern string) Parser[string] {
	re := regexp.MustCompile(`^(?:` + pattern + `)`)
	return NewParser(func(s Source) (*Result[string], error) {
		return s.Match(re), nil
	})
}

// Constant always succeeds with the given value, without consuming any input.
func Constant[T any](value T) Parser[T] {
	return NewParser(func(s Source) (*Result[T], error) {
		return &Result[T]{Value: value, Source: s}, nil
	})
}

// Error fails fatally with the given message as soon as it is invoked. Unlike a
// miss this aborts the whole parse, so it only belongs where being reached at all
// is a bug (e.g. the fallback of an undefined ForwardRef).
func Error[T any](message string) Parser[T] {
	return NewParser(func(Source) (*Result[T], error) {
		return nil, errors.New(message)
	})
}

// ----------------------------------------------------------------------------
// Combinators

// Or tries each alternative in order and keeps the first that does not miss
// (PEG ordered choice). A fatal error from any alternative is propagated as is.
func Or[T any](parsers ...Parser[T]) Parser[T] {
	return NewParser(func(s Source) (*Result[T], error) {
		for _, parser := range parsers {
			result, err := parser.Parse(s)
			if err != nil {
				return nil, err
			}
			if result != nil {
				return result, nil
			}
		}
		return nil, nil
	})
}

// ZeroOrMore applies the parser repeatedly, collecting the produced values, until
// it misses. It never misses itself: zero repetitions yield an empty (non-nil) slice.
func ZeroOrMore[T any](parser Parser[T]) Parser[[]T] {
	return NewParser(func(s Source) (*Result[[]T], error) {
		items := []T{}
		for {
			result, err := parser.Parse(s)
			if err != nil {
				return nil, err
			}
			if result == nil {
				break
			}
			items = append(items, result.Value)
			s = result.Source
		}
		return &Result[[]T]{Value: items, Source: s}, nil
	})
}

// Bind applies the parser and, on success, feeds the produced value to 'f' to
// obtain the continuation parser, run from where the first one stopped. This is
// the primitive the sequencing combinators are built on.
func Bind[A, B any](parser Parser[A], f func(A) Parser[B]) Parser[B] {
	return NewParser(func(s Source) (*Result[B], error) {
		result, err := parser.Parse(s)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, nil
		}
		return f(result.Value).Parse(result.Source)
	})
}

// And sequences two parsers, keeping only the value of the second.
func And[A, B any](first Parser[A], second Parser[B]) Parser[B] {
	return Bind(first, func(A) Parser[B] { return second })
}

// Map rewrites the value of a successful parse through 'f'.
func Map[A, B any](parser Parser[A], f func(A) B) Parser[B] {
	return Bind(parser, func(value A) Parser[B] { return Constant(f(value)) })
}

// Maybe tries the parser and, on a miss, succeeds anyway with a nil sentinel
// without consuming input. On success the value is handed back through a pointer.
func Maybe[T any](parser Parser[T]) Parser[*T] {
	return NewParser(func(s Source) (*Result[*T], error) {
		result, err := parser.Parse(s)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return &Result[*T]{Value: nil, Source: s}, nil
		}

		value := result.Value
		return &Result[*T]{Value: &value, Source: result.Source}, nil
	})
}

// ----------------------------------------------------------------------------
// Driver

// ParseStringToCompletion parses the whole source from index 0 with the given
// parser. It promotes the two non-fatal outcomes into fatal errors: a miss at
// index 0, and a success that leaves trailing unconsumed input. In both cases
// the reported index is where progress stopped.
func ParseStringToCompletion[T any](parser Parser[T], source string) (T, error) {
	var zero T

	result, err := parser.Parse(Source{Content: source, Index: 0})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, fmt.Errorf("Parse error at index %d", 0)
	}
	if result.Source.Index != len(source) {
		return zero, fmt.Errorf("Parse error at index %d", result.Source.Index)
	}

	return result.Value, nil
}

// ----------------------------------------------------------------------------
// Forward references

// ForwardRef is a late-bound slot for a parser that cannot be constructed yet,
// which is how a recursive grammar (expressions nested in parentheses, statements
// nested in blocks) gets tied together. Parser() can be embedded into other parsers
// right away; the slot is resolved at parse time, so defining it with Define
// before the first parse is all that is required. An undefined reference fails
// fatally with the configured message instead of silently missing.
type ForwardRef[T any] struct {
	parser    *Parser[T]
	undefined Parser[T]
}

// NewForwardRef creates an undefined reference with the given failure message.
func NewForwardRef[T any](message string) *ForwardRef[T] {
	return &ForwardRef[T]{undefined: Error[T](message)}
}

// Define resolves the reference to the given parser.
func (ref *ForwardRef[T]) Define(parser Parser[T]) {
	ref.parser = &parser
}

// Parser returns a parser that dispatches through the slot on every invocation.
func (ref *ForwardRef[T]) Parser() Parser[T] {
	return NewParser(func(s Source) (*Result[T], error) {
		if ref.parser == nil {
			return ref.undefined.Parse(s)
		}
		return ref.parser.Parse(s)
	})
}
