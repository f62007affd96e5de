// Package ptr returns pointers to literal values for optional YAML fields.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T { return &v }
