package tariff

// Factor computes the weather normalization adjustment factor in $/Mcf:
//
//	WNAF = R × (HSF × (NDD − ADD)) / (BL + HSF × ADD)
//
// The numerator encodes the sign inversion: a colder-than-normal period
// (ADD > NDD) yields a negative factor, crediting the customer, while a
// warmer-than-normal period yields a surcharge. NDD is supplied by the
// caller: either the whole cycle's normal or just the elapsed sub-period's,
// depending on whether future days are being assumed normal.
//
// degenerate reports a zero denominator (an unconfigured or nonsensical
// tariff); the factor is then zero rather than a division by zero.
func Factor(r, hsf, bl, ndd, add float64) (factor float64, degenerate bool) {
	if ndd == add {
		// exactly zero, not floating noise
		return 0, false
	}
	den := bl + hsf*add
	if den == 0 {
		return 0, true
	}
	return r * (hsf * (ndd - add)) / den, false
}
