package oracle

// Source records where a Result's value came from.
type Source string

const (
	// SourceParsed means the value was read from the service's response.
	SourceParsed Source = "parsed"

	// SourceDefaulted means the call or the parse failed and the documented
	// default was substituted.
	SourceDefaulted Source = "defaulted"
)

// Result is the outcome of an oracle question. Value is always usable.
// Err holds the reason a default was substituted and is informational only.
type Result[T any] struct {
	Value  T
	Source Source
	Err    error
}

// Defaulted reports whether Value is a substituted default.
func (r Result[T]) Defaulted() bool {
	return r.Source == SourceDefaulted
}

func parsed[T any](v T) Result[T] {
	return Result[T]{Value: v, Source: SourceParsed}
}

func defaulted[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Source: SourceDefaulted, Err: err}
}
