package stats

import "math/big"

const ratioScale = 6

// mostDrawn returns the number with the highest count; ties go to the lower number.
func mostDrawn(counts []int64) (int, int64) {
	best, bestCount := 0, int64(-1)
	for n, c := range counts {
		if c > bestCount {
			best, bestCount = n, c
		}
	}
	return best, bestCount
}

func shareOf(count int64, total uint64) *string {
	if total == 0 || count <= 0 {
		return nil
	}
	rat := new(big.Rat).SetFrac(big.NewInt(count), new(big.Int).SetUint64(total))
	val := rat.FloatString(ratioScale)
	return &val
}

// expectedShare is the share of a fair single-zero wheel.
func expectedShare() string {
	return big.NewRat(1, 37).FloatString(ratioScale)
}
