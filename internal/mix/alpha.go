package mix

import "math"

// alphaTable holds the solutions of (1+x)^(1/x) = e^((1-t)/(2-t))
// for t = 0.00, 0.01, ... 0.99.
var alphaTable = [100]float64{
	2.51286, 2.54236, 2.57254, 2.60340, 2.63499, 2.66731, 2.70040, 2.73428, 2.76899, 2.80454,
	2.84098, 2.87833, 2.91663, 2.95592, 2.99622, 3.03758, 3.08005, 3.12366, 3.16845, 3.21449,
	3.26181, 3.31048, 3.36054, 3.41206, 3.46509, 3.51971, 3.57599, 3.63399, 3.69380, 3.75550,
	3.81918, 3.88493, 3.95285, 4.02305, 4.09563, 4.17073, 4.24846, 4.32896, 4.41238, 4.49888,
	4.58862, 4.68178, 4.77856, 4.87916, 4.98380, 5.09272, 5.20619, 5.32448, 5.44790, 5.57676,
	5.71144, 5.85231, 5.99980, 6.15437, 6.31651, 6.48678, 6.66578, 6.85417, 7.05269, 7.26213,
	7.48338, 7.71744, 7.96541, 8.22851, 8.50810, 8.80573, 9.12312, 9.46223, 9.82527, 10.21474,
	10.63353, 11.08492, 11.57270, 12.10126, 12.67570, 13.30200, 13.98717, 14.73956, 15.56907, 16.48767,
	17.50980, 18.65318, 19.93968, 21.39661, 23.05856, 24.96984, 27.18822, 29.79026, 32.87958, 36.59968,
	41.15485, 46.84550, 54.13115, 63.74946, 76.95930, 96.08797, 125.93570, 178.12403, 289.19889, 655.12084,
}

// Alpha returns the logarithmic compression coefficient for a threshold in
// [0,1), taken from the table entry floor(threshold*100).
func Alpha(threshold float64) float64 {
	// the nudge keeps e.g. 0.29*100 = 28.999999999999996 on entry 29
	idx := int(math.Floor(threshold*100 + 1e-9))
	return alphaTable[min(max(idx, 0), len(alphaTable)-1)]
}

// SolveAlpha solves (1+x)^(1/x) = e^((1-t)/(2-t)) for x by bisection.
// The left side falls monotonically from e (x→0) toward 1, so the root is
// unique for every t in [0,1).
func SolveAlpha(threshold float64) float64 {
	target := (1 - threshold) / (2 - threshold)
	// compare logarithms: ln(1+x)/x = target
	f := func(x float64) float64 { return math.Log1p(x)/x - target }

	lo, hi := 1e-12, 1.0
	for f(hi) > 0 {
		hi *= 2
	}
	for range 200 {
		mid := (lo + hi) / 2
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
