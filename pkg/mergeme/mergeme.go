// Package mergeme is the runtime companion of the mergeme generator.
//
// Generated code depends on this package for the merge interfaces it asserts
// and for the helpers that implement the append and merge strategies.
package mergeme

// Merger is implemented by every generated record type T whose partial type is P.
// Merge returns a copy of the receiver with every present field of the partial applied.
type Merger[P, T any] interface {
	Merge(partial P) T
}

// InPlaceMerger is implemented by a pointer to a generated record type.
type InPlaceMerger[P any] interface {
	MergeInPlace(partial P)
}

// Fold applies partials to base from left to right and returns the result.
// base is never modified.
func Fold[P any, T Merger[P, T]](base T, partials ...P) T {
	result := base
	for _, partial := range partials {
		result = result.Merge(partial)
	}
	return result
}

// Some returns a pointer to a copy of v, marking a partial field as present.
func Some[T any](v T) *T {
	return &v
}

// ValueOr returns *p when the partial field is present and fallback otherwise.
func ValueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Append returns the elements of dst followed by the elements of src.
// The result never shares a backing array with dst, so a slice held by an
// original record stays untouched after a merge. When src is empty dst is
// returned as is.
func Append[S ~[]E, E any](dst, src S) S {
	if len(src) == 0 {
		return dst
	}
	out := make(S, 0, len(dst)+len(src))
	out = append(out, dst...)
	return append(out, src...)
}

// Union returns a new map holding the entries of dst and src. Keys present in
// both take the value from src. When src is empty dst is returned as is.
func Union[M ~map[K]V, K comparable, V any](dst, src M) M {
	if len(src) == 0 {
		return dst
	}
	out := make(M, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}
