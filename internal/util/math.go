package util

// Min returns the smaller of two ints
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two ints
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
