// README: Candidate ordering helpers for the matching service.
package matching

// sortByDistance orders items ascending by dist. Candidate sets are small
// (bounded by the search radius), so insertion sort is enough.
func sortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		j := i
		for j > 0 && dist(items[j]) < dist(items[j-1]) {
			items[j], items[j-1] = items[j-1], items[j]
			j--
		}
	}
}
