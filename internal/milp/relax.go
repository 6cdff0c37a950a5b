package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var errRelaxInfeasible = errors.New("milp: relaxation infeasible")

// relaxationBound solves the LP relaxation of m with 0 <= x <= 1 and
// returns its optimum.  Variables already fixed in fixed are substituted
// out.  The remaining program is put into the standard form expected by
// lp.Simplex:
//
//	minimize cᵀx  s.t.  Ax = b, x >= 0
//
// by adding one slack column per finite inequality bound and one
// complement column per free variable.
func relaxationBound(m *Model, fixed []int8) (float64, error) {
	col := make([]int, m.NumVars())
	cols, constant := 0, 0.0
	for j, v := range fixed {
		if v == free {
			col[j] = cols
			cols++
			continue
		}
		col[j] = -1
		constant += float64(v) * m.obj[j]
	}
	vars := cols

	type row struct {
		coefs map[int]float64
		rhs   float64
	}
	var rows []row
	for _, c := range m.cons {
		base := make(map[int]float64, len(c.Terms)+1)
		shift := 0.0
		for _, t := range c.Terms {
			if col[t.Var] < 0 {
				shift += float64(fixed[t.Var]) * t.Coef
				continue
			}
			base[col[t.Var]] += t.Coef
		}
		lower, upper := c.Lower-shift, c.Upper-shift
		if len(base) == 0 {
			if lower > eps || upper < -eps {
				return 0, errRelaxInfeasible
			}
			continue
		}
		if math.Abs(upper-lower) <= eps {
			rows = append(rows, row{coefs: base, rhs: lower})
			continue
		}
		if !math.IsInf(upper, 1) {
			r := row{coefs: copyCoefs(base), rhs: upper}
			r.coefs[cols] = 1
			cols++
			rows = append(rows, r)
		}
		if !math.IsInf(lower, -1) {
			r := row{coefs: copyCoefs(base), rhs: lower}
			r.coefs[cols] = -1
			cols++
			rows = append(rows, r)
		}
	}
	if vars == 0 {
		return constant, nil
	}
	for j := 0; j < vars; j++ {
		rows = append(rows, row{coefs: map[int]float64{j: 1, cols: 1}, rhs: 1})
		cols++
	}
	if len(rows) > cols {
		return 0, fmt.Errorf("milp: relaxation has %d rows and %d columns", len(rows), cols)
	}

	a := mat.NewDense(len(rows), cols, nil)
	b := make([]float64, len(rows))
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for j, v := range r.coefs {
			a.Set(i, j, sign*v)
		}
		b[i] = sign * r.rhs
	}
	c := make([]float64, cols)
	for j, cj := range col {
		if cj >= 0 {
			c[cj] = m.obj[j]
		}
	}

	opt, _, err := lp.Simplex(c, a, b, 0, nil)
	if errors.Is(err, lp.ErrInfeasible) {
		return 0, errRelaxInfeasible
	}
	if err != nil {
		return 0, fmt.Errorf("milp: simplex: %w", err)
	}
	return constant + opt, nil
}

func copyCoefs(in map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
