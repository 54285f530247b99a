package genetics

import "math"

// expressLimit bounds the weighted sum before the sigmoid.
const expressLimit = 6.0

// Weight pairs a gene index with its contribution to a trait.
type Weight struct {
	Gene   int
	Weight float64
}

// Express maps a weighted subset of genes into [lo, hi]:
// sum = bias + Σ w·(2g−1), clamped to [-6,6], passed through a logistic
// sigmoid and remapped linearly.
func Express(g *Genome, weights []Weight, bias, lo, hi float64) float64 {
	sum := bias
	for _, w := range weights {
		sum += w.Weight * (2*g.Gene(w.Gene) - 1)
	}
	sum = math.Max(-expressLimit, math.Min(expressLimit, sum))
	return lo + (hi-lo)*Sigmoid(sum)
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
