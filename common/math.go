package common

import "math"

// DecimalToFixed rounds num to precision decimal places, half away from zero.
func DecimalToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return math.Round(num*output) / output
}
