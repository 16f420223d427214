package testing

// Reverse returns reversed copy of s
func Reverse[T any](s []T) []T {
	reversed := make([]T, len(s))
	copy(reversed, s)

	for i := len(reversed)/2 - 1; i >= 0; i-- {
		opp := len(reversed) - 1 - i
		reversed[i], reversed[opp] = reversed[opp], reversed[i]
	}

	return reversed
}
