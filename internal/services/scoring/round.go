package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds x half away from zero to the given number of decimals.
// NaN and infinities are returned unchanged.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}
