// Package cartprod computes Cartesian products of lists.
package cartprod

// Extend appends every item to every partial combination.
func Extend[T any](partial [][]T, items []T) [][]T {
	out := make([][]T, 0, len(partial)*len(items))
	for _, xs := range partial {
		for _, y := range items {
			next := make([]T, len(xs), len(xs)+1)
			copy(next, xs)
			out = append(out, append(next, y))
		}
	}
	return out
}

// Product returns every combination picking one element from each list.
// The result has len(lists[0]) * len(lists[1]) * ... entries, so any empty
// list, or no lists at all, gives an empty product. Callers must not depend
// on the order of the combinations.
func Product[T any](lists [][]T) [][]T {
	if len(lists) == 0 {
		return nil
	}
	acc := make([][]T, 0, len(lists[0]))
	for _, x := range lists[0] {
		acc = append(acc, []T{x})
	}
	for _, list := range lists[1:] {
		acc = Extend(acc, list)
	}
	return acc
}
