// Package utils holds small generic helpers shared across packages.
package utils

// Value dereferences v, substituting the zero value for a nil pointer.
// Useful when reading optional fields such as a session's profile.
func Value[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
