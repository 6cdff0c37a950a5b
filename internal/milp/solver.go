package milp

import "context"

// Status is the outcome of a solve.
type Status int

const (
	// StatusNotSolved means the search stopped before finding any solution
	// (node limit, deadline or cancellation).
	StatusNotSolved Status = iota
	// StatusOptimal means the solution is proven optimal.
	StatusOptimal
	// StatusFeasible means a solution was found but the search stopped
	// before optimality was proven.
	StatusFeasible
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "not_solved"
	}
}

// Solution carries the status and, unless infeasible or not solved, the
// variable values of the best assignment found.
type Solution struct {
	Status    Status
	Objective float64
	Nodes     int
	values    []bool
}

// Value reports the value of v in the solution.  It returns false when the
// solution carries no values.
func (s *Solution) Value(v Var) bool {
	if s == nil || int(v) >= len(s.values) || v < 0 {
		return false
	}
	return s.values[v]
}

// Solver solves a Model.  Solve returns an error only for problems with
// the model itself; limits and cancellation are reported through Status.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}
