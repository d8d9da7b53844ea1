package measure

import (
	"github.com/leapstack-labs/portion/pkg/ratio"
)

var commonFractions = []ratio.Ratio{ratio.New(1, 8), ratio.New(1, 3)}

func isGood(v ratio.Ratio) bool {
	if v.IsZero() {
		return false
	}
	if v.IsInt() {
		return true
	}
	for _, f := range commonFractions {
		if v.Quo(f).IsInt() {
			return true
		}
	}
	return false
}

// FormatValue writes v as a whole number ("3"), a mixed number ("1 3/4")
// when greater than one, or a reduced fraction ("3/4").
func FormatValue(v ratio.Ratio) string {
	return formatValue(v)
}

func formatValue(v ratio.Ratio) string {
	switch {
	case v.IsInt():
		return v.Num().String()
	case v.Cmp(ratio.One) > 0:
		return v.Trunc().String() + " " + v.Fract().String()
	default:
		return v.String()
	}
}
