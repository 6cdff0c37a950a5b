// Package milp is a small 0/1 linear programming toolkit.  A Model holds
// boolean variables, linear constraints with lower and upper bounds and a
// linear objective to minimise.  Solvers implement the Solver interface so
// the code that builds a model does not depend on a particular back-end.
package milp

import (
	"fmt"
	"math"
)

// Inf is used as an open constraint bound.
var Inf = math.Inf(1)

// Var identifies a boolean variable of a Model.
type Var int

// Term is a coefficient applied to a variable.
type Term struct {
	Var  Var
	Coef float64
}

// Constraint is lb <= sum(terms) <= ub.  Either bound may be infinite.
type Constraint struct {
	Name  string
	Lower float64
	Upper float64
	Terms []Term
}

// Model is a 0/1 program under construction.  It is not safe for concurrent
// use while being built; solvers only read it.
type Model struct {
	name  string
	names []string
	obj   []float64
	cons  []Constraint
	hint  []int8
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{name: name}
}

// Name returns the model name given to NewModel.
func (m *Model) Name() string { return m.name }

// NewBoolVar adds a boolean variable with a zero objective coefficient.
func (m *Model) NewBoolVar(name string) Var {
	m.names = append(m.names, name)
	m.obj = append(m.obj, 0)
	return Var(len(m.names) - 1)
}

// AddConstraint adds lb <= sum(terms) <= ub and returns its index.
// Terms on the same variable are merged.
func (m *Model) AddConstraint(name string, lb, ub float64, terms ...Term) int {
	merged := make([]Term, 0, len(terms))
	at := make(map[Var]int, len(terms))
	for _, t := range terms {
		m.checkVar(t.Var)
		if i, ok := at[t.Var]; ok {
			merged[i].Coef += t.Coef
			continue
		}
		at[t.Var] = len(merged)
		merged = append(merged, t)
	}
	m.cons = append(m.cons, Constraint{Name: name, Lower: lb, Upper: ub, Terms: merged})
	return len(m.cons) - 1
}

// Minimize sets the objective.  Variables not mentioned get coefficient 0;
// repeated terms accumulate.
func (m *Model) Minimize(terms ...Term) {
	for i := range m.obj {
		m.obj[i] = 0
	}
	for _, t := range terms {
		m.checkVar(t.Var)
		m.obj[t.Var] += t.Coef
	}
}

// SetHint records a value for v in a known feasible assignment.  A solver
// may start from the hinted assignment, taking every variable without a
// hint as false, when it satisfies all constraints.  Hints that do not form
// a feasible assignment are ignored.
func (m *Model) SetHint(v Var, value bool) {
	m.checkVar(v)
	for len(m.hint) < len(m.names) {
		m.hint = append(m.hint, free)
	}
	m.hint[v] = 0
	if value {
		m.hint[v] = 1
	}
}

// HasHint reports whether any variable carries a hint.
func (m *Model) HasHint() bool { return len(m.hint) > 0 }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.names) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.cons) }

// Constraint returns the i-th constraint.
func (m *Model) Constraint(i int) Constraint { return m.cons[i] }

// Objective returns the objective coefficient of v.
func (m *Model) Objective(v Var) float64 { return m.obj[v] }

// VarName returns the name given to v.
func (m *Model) VarName(v Var) string { return m.names[v] }

func (m *Model) checkVar(v Var) {
	if v < 0 || int(v) >= len(m.names) {
		panic(fmt.Sprintf("milp: variable %d not in model %q", v, m.name))
	}
}
