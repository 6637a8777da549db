package domain

import "strings"

// NotSpecified is the wire placeholder for a field that is absent or could
// not be parsed. Inside the engine absence is modelled with Opt or the zero
// value; the literal only appears when a value is written out.
const NotSpecified = "Not Specified"

// Opt holds a value that may be absent.
type Opt[T comparable] struct {
	v  T
	ok bool
}

func Some[T comparable](v T) Opt[T] { return Opt[T]{v: v, ok: true} }

func None[T comparable]() Opt[T] { return Opt[T]{} }

func (o Opt[T]) Get() (T, bool) { return o.v, o.ok }

func (o Opt[T]) Valid() bool { return o.ok }

// Or returns the held value, or def when absent.
func (o Opt[T]) Or(def T) T {
	if o.ok {
		return o.v
	}
	return def
}

// OrElse returns o when present, otherwise next.
func (o Opt[T]) OrElse(next Opt[T]) Opt[T] {
	if o.ok {
		return o
	}
	return next
}

// Text wraps s as present unless it is blank or a placeholder.
func Text(s string) Opt[string] {
	if IsUnspecified(s) {
		return None[string]()
	}
	return Some(s)
}

// IsUnspecified reports whether a scraped string carries no information.
// Scrapers emit "N/A" and "Not Specified" for missing nodes.
func IsUnspecified(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || t == NotSpecified || t == "N/A"
}

// Sentinel renders an optional string-like value for the wire.
func Sentinel[T ~string](o Opt[T]) string {
	if v, ok := o.Get(); ok {
		return string(v)
	}
	return NotSpecified
}
