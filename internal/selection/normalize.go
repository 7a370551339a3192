package selection

// Normalize min-max scales values to [0,1]. An empty slice is returned
// unchanged; when every value is equal the result is all 1.0.
func Normalize(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	out := make([]float64, len(values))
	span := hi - lo
	for i, v := range values {
		if span == 0 {
			out[i] = 1
			continue
		}
		out[i] = (v - lo) / span
	}
	return out
}
