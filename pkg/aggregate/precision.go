package aggregate

import (
	"math"
	"strconv"
	"strings"
)

// scientificThreshold is the magnitude from which values print in
// scientific notation.
const scientificThreshold = 1e9

// MinimalPrecision formats v with as few decimals as keep it visually
// distinct: the zeros right after the decimal point are kept and the first
// significant fractional digit is rounded half away from zero.
//
//	0.1234 -> "0.1"    1.0019 -> "1.002"    0.25 -> "0.3"
//	123456789 -> "123456789"    1234567891 -> "1.2e9"
func MinimalPrecision(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	left, right, ok := strings.Cut(s, ".")
	if ok {
		s = roundFraction(v, left, right)
	}

	if r, err := strconv.ParseFloat(s, 64); err == nil && math.Abs(r) >= scientificThreshold {
		return scientific(r)
	}
	return s
}

// roundFraction keeps the leading zeros of the fractional digits and rounds
// the remainder to one significant digit.
func roundFraction(v float64, left, right string) string {
	zeros := len(right) - len(strings.TrimLeft(right, "0"))
	digits, err := strconv.ParseFloat(right, 64)
	if err != nil || digits == 0 {
		return left
	}

	first := math.Round(digits / math.Pow(10, math.Floor(math.Log10(digits))))
	whole, _ := strconv.ParseFloat(strings.TrimPrefix(left, "-"), 64)
	r := whole + first*math.Pow(10, -float64(zeros+1))
	if math.Signbit(v) {
		r = -r
	}

	out := strconv.FormatFloat(r, 'f', zeros+1, 64)
	out = strings.TrimRight(out, "0")
	return strings.TrimSuffix(out, ".")
}

// scientific formats v with one decimal and an unpadded exponent ("1.2e9").
func scientific(v float64) string {
	s := strconv.FormatFloat(v, 'e', 1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	n, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return mantissa + "e" + strconv.Itoa(n)
}
