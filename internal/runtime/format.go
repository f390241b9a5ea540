package runtime

import (
	"math"
	"strconv"
)

const integerTolerance = 1e-9

// FormatNumber renders v as an integer string when it is within 1e-9 of an
// integer, else as the shortest decimal that round-trips exactly:
// FormatNumber(1.0)="1", FormatNumber(1.5)="1.5", FormatNumber(1.2300)="1.23".
func FormatNumber(v float64) string {
	rounded := math.Round(v)
	if math.Abs(v-rounded) < integerTolerance {
		return strconv.FormatInt(int64(rounded), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
