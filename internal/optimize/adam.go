package optimize

import "math"

// adam implements the Adam update for a set of parameter groups, applied as
// gradient ascent.
type adam struct {
	lr, beta1, beta2, eps float64

	t    int
	m, v [][]float64
}

func newAdam(lr float64, groups ...[]float64) *adam {
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
	for _, g := range groups {
		a.m = append(a.m, make([]float64, len(g)))
		a.v = append(a.v, make([]float64, len(g)))
	}
	return a
}

// ascend moves params along grads. params[i] and grads[i] must have the
// lengths given to newAdam.
func (a *adam) ascend(params, grads [][]float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	for gi, p := range params {
		g, m, v := grads[gi], a.m[gi], a.v[gi]
		for i := range p {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
			p[i] += a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
		}
	}
}
