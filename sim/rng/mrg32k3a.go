package rng

import "math/bits"

// MRG32k3a combined multiple-recursive generator constants (L'Ecuyer 1999).
// These must not change: reference outputs depend on them bit for bit.
const (
	m1   uint64 = 4294967087
	m2   uint64 = 4294944443
	a12  uint64 = 1403580
	a13n uint64 = 810728
	a21  uint64 = 527612
	a23n uint64 = 1370589

	norm = 2.328306549295727688e-10 // 1 / (m1 + 1)
)

type matrix [3][3]uint64

// Jump matrices. A1p76/A2p76 advance a component by 2^76 steps (one sub-stream),
// A1p127/A2p127 by 2^127 steps (one stream).
var (
	a1p76 = matrix{
		{82758667, 1871391091, 4127413238},
		{3672831523, 69195019, 1871391091},
		{3672091415, 3528743235, 69195019},
	}
	a2p76 = matrix{
		{1511326704, 3759209742, 1610795712},
		{4292754251, 1511326704, 3889917532},
		{3859662829, 4292754251, 3708466080},
	}
	a1p127 = matrix{
		{2427906178, 3580155704, 949770784},
		{226153695, 1230515664, 3580155704},
		{1988835001, 986791581, 1230515664},
	}
	a2p127 = matrix{
		{1464411153, 277697599, 1610723613},
		{32183930, 1464411153, 1022607788},
		{2824425944, 32183930, 2093834863},
	}
)

// mulMod returns a*b mod m without overflow.
func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}

// matVecMod returns A*v mod m.
func matVecMod(a *matrix, v [3]uint64, m uint64) [3]uint64 {
	var out [3]uint64
	for i := 0; i < 3; i++ {
		var sum uint64
		for j := 0; j < 3; j++ {
			sum = (sum + mulMod(a[i][j], v[j], m)) % m
		}
		out[i] = sum
	}
	return out
}

// jump applies the given pair of component matrices to a full 6-word state.
func jump(state [6]uint64, c1, c2 *matrix) [6]uint64 {
	lo := matVecMod(c1, [3]uint64{state[0], state[1], state[2]}, m1)
	hi := matVecMod(c2, [3]uint64{state[3], state[4], state[5]}, m2)
	return [6]uint64{lo[0], lo[1], lo[2], hi[0], hi[1], hi[2]}
}

// step advances the state by one and returns the normalized output in (0,1).
// All products stay below 2^53, so signed 64-bit arithmetic is exact.
func step(s *[6]uint64) float64 {
	p1 := (int64(a12)*int64(s[1]) - int64(a13n)*int64(s[0])) % int64(m1)
	if p1 < 0 {
		p1 += int64(m1)
	}
	s[0], s[1], s[2] = s[1], s[2], uint64(p1)

	p2 := (int64(a21)*int64(s[5]) - int64(a23n)*int64(s[3])) % int64(m2)
	if p2 < 0 {
		p2 += int64(m2)
	}
	s[3], s[4], s[5] = s[4], s[5], uint64(p2)

	if p1 > p2 {
		return float64(p1-p2) * norm
	}
	return float64(p1-p2+int64(m1)) * norm
}
