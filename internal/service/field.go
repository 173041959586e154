package service

// Field is a value of a partial update. Unset fields keep their stored value.
type Field[T any] struct {
	Value T
	Set   bool
}

// Set returns a field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Or returns the field value when set and fallback otherwise.
func (f Field[T]) Or(fallback T) T {
	if f.Set {
		return f.Value
	}
	return fallback
}
