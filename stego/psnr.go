package stego

import "math"

// CalculatePSNR compares a carrier before and after embedding, byte by byte
// with a peak of 255. Mismatched or empty inputs yield 0; identical ones +Inf.
func CalculatePSNR(original, modified []byte) float64 {
	if len(original) != len(modified) || len(original) == 0 {
		return 0
	}
	var mse float64
	for i := range original {
		diff := float64(original[i]) - float64(modified[i])
		mse += diff * diff
	}
	mse /= float64(len(original))
	if mse == 0 {
		return math.Inf(1)
	}
	return 20 * math.Log10(math.MaxUint8/math.Sqrt(mse))
}
