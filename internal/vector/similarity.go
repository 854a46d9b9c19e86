package vector

// SquaredL2 returns the squared Euclidean distance between a and b.
// Vectors of different length are compared over the shorter prefix.
func SquaredL2(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

