package models

type optState uint8

const (
	optMissing optState = iota
	optPresent
	optNotApplicable
)

// Opt is a three-state optional field. A scraped field is either present,
// missing from the markup, or not applicable for the page era it came from.
// Missing is never conflated with a legitimately empty value.
type Opt[T any] struct {
	val   T
	state optState
}

// Some wraps a value that was actually observed on the page.
func Some[T any](v T) Opt[T] {
	return Opt[T]{val: v, state: optPresent}
}

// None marks a field that the page should carry but does not.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// NA marks a field that the page era never exposes.
func NA[T any]() Opt[T] {
	return Opt[T]{state: optNotApplicable}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.val, o.state == optPresent
}

func (o Opt[T]) Present() bool {
	return o.state == optPresent
}

func (o Opt[T]) Missing() bool {
	return o.state == optMissing
}

func (o Opt[T]) IsNA() bool {
	return o.state == optNotApplicable
}

// Or returns the value if present and fallback otherwise.
func (o Opt[T]) Or(fallback T) T {
	if o.state == optPresent {
		return o.val
	}
	return fallback
}
