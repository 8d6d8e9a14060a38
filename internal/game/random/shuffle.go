package random

// Shuffle pseudo-randomizes the order of n elements using the Fisher-Yates
// algorithm. swap exchanges the elements with indexes i and j.
//
// Precondition: src must be non-nil; n >= 0.
// Postcondition: Every permutation of the n elements is equally likely given a uniform src.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		swap(i, j)
	}
}

// Pick returns a uniformly chosen element of items.
//
// Precondition: len(items) > 0.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}
