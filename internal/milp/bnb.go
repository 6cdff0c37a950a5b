package milp

import (
	"context"
	"errors"
	"math"
	"sort"

	"go.uber.org/zap"
)

const (
	eps  = 1e-9
	free = int8(-1)
)

// BranchAndBound is a depth-first 0/1 solver.  Every node runs bound
// propagation over all linear constraints; the objective bound comes from
// disjoint covering rows (all coefficients 1, lower bound >= 1) and,
// for small models, from the LP relaxation at the root.  A feasible hint
// on the model becomes the first incumbent.
type BranchAndBound struct {
	nodeLimit int
	lpMaxVars int
	log       *zap.Logger
}

var _ Solver = (*BranchAndBound)(nil)

// Option configures a BranchAndBound solver.
type Option func(*BranchAndBound)

// WithNodeLimit stops the search after n nodes.  Zero means unlimited.
func WithNodeLimit(n int) Option {
	return func(b *BranchAndBound) { b.nodeLimit = n }
}

// WithLPRelaxation enables the root LP bound for models with at most
// maxVars variables.  Zero disables it.
func WithLPRelaxation(maxVars int) Option {
	return func(b *BranchAndBound) { b.lpMaxVars = maxVars }
}

// WithLogger sets the logger used for solve summaries.
func WithLogger(l *zap.Logger) Option {
	return func(b *BranchAndBound) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBranchAndBound creates a solver.  By default there is no node limit
// and the LP relaxation is disabled.
func NewBranchAndBound(opts ...Option) *BranchAndBound {
	b := &BranchAndBound{log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Solve searches for a minimum-cost assignment of m.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if m == nil {
		return nil, errors.New("milp: nil model")
	}
	if ctx.Err() != nil {
		return &Solution{Status: StatusNotSolved}, nil
	}
	for _, c := range m.cons {
		if c.Lower > c.Upper+eps {
			return &Solution{Status: StatusInfeasible}, nil
		}
		if len(c.Terms) == 0 && (c.Lower > eps || c.Upper < -eps) {
			return &Solution{Status: StatusInfeasible}, nil
		}
	}

	s := newSearch(ctx, m, b.nodeLimit)
	for ci := range m.cons {
		s.enqueue(ci)
	}
	if !s.propagate() {
		b.log.Debug("milp root propagation infeasible", zap.String("model", m.Name()))
		return &Solution{Status: StatusInfeasible}, nil
	}

	if b.lpMaxVars > 0 && m.NumVars() <= b.lpMaxVars {
		bound, err := relaxationBound(m, s.val)
		switch {
		case errors.Is(err, errRelaxInfeasible):
			b.log.Debug("milp relaxation infeasible", zap.String("model", m.Name()))
			return &Solution{Status: StatusInfeasible}, nil
		case err != nil:
			b.log.Debug("milp relaxation skipped", zap.String("model", m.Name()), zap.Error(err))
		default:
			s.rootBound = bound - 1e-7
		}
	}

	if s.useHint() {
		b.log.Debug("milp starting from hint",
			zap.String("model", m.Name()),
			zap.Float64("objective", s.bestObj),
		)
	}
	s.dive()

	sol := &Solution{Nodes: s.nodes}
	switch {
	case s.haveBest && !s.stopped:
		sol.Status = StatusOptimal
	case s.haveBest:
		sol.Status = StatusFeasible
	case s.stopped:
		sol.Status = StatusNotSolved
	default:
		sol.Status = StatusInfeasible
	}
	if s.haveBest {
		sol.Objective = s.bestObj
		sol.values = make([]bool, len(s.best))
		for i, x := range s.best {
			sol.values[i] = x == 1
		}
	}
	b.log.Debug("milp solve finished",
		zap.String("model", m.Name()),
		zap.Int("vars", m.NumVars()),
		zap.Int("constraints", m.NumConstraints()),
		zap.Int("nodes", s.nodes),
		zap.Stringer("status", sol.Status),
	)
	return sol, nil
}

type occurrence struct {
	con  int
	coef float64
}

type search struct {
	m   *Model
	ctx context.Context

	val     []int8
	minAct  []float64
	maxAct  []float64
	maxCoef []float64
	watch   [][]occurrence
	trail   []Var
	queue   []int
	queued  []bool
	cost    float64

	cover     []int
	negFree   []Var
	rootBound float64

	best     []int8
	bestObj  float64
	haveBest bool

	nodes     int
	nodeLimit int
	stopped   bool
	done      bool
}

func newSearch(ctx context.Context, m *Model, nodeLimit int) *search {
	n, k := m.NumVars(), m.NumConstraints()
	s := &search{
		m:         m,
		ctx:       ctx,
		val:       make([]int8, n),
		minAct:    make([]float64, k),
		maxAct:    make([]float64, k),
		maxCoef:   make([]float64, k),
		watch:     make([][]occurrence, n),
		queued:    make([]bool, k),
		rootBound: math.Inf(-1),
		nodeLimit: nodeLimit,
	}
	for i := range s.val {
		s.val[i] = free
	}
	for ci, c := range m.cons {
		for _, t := range c.Terms {
			s.watch[t.Var] = append(s.watch[t.Var], occurrence{con: ci, coef: t.Coef})
			s.minAct[ci] += math.Min(t.Coef, 0)
			s.maxAct[ci] += math.Max(t.Coef, 0)
			s.maxCoef[ci] = math.Max(s.maxCoef[ci], math.Abs(t.Coef))
		}
	}

	covered := make([]bool, n)
	for ci, c := range m.cons {
		if c.Lower < 1-eps || len(c.Terms) == 0 {
			continue
		}
		ok := true
		for _, t := range c.Terms {
			if t.Coef != 1 || m.obj[t.Var] < 0 || covered[t.Var] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, t := range c.Terms {
			covered[t.Var] = true
		}
		s.cover = append(s.cover, ci)
	}
	for v := range covered {
		if !covered[v] && m.obj[v] < 0 {
			s.negFree = append(s.negFree, Var(v))
		}
	}
	return s
}

func (s *search) enqueue(ci int) {
	if !s.queued[ci] {
		s.queued[ci] = true
		s.queue = append(s.queue, ci)
	}
}

func (s *search) fix(v Var, x int8) bool {
	if cur := s.val[v]; cur != free {
		return cur == x
	}
	s.val[v] = x
	s.trail = append(s.trail, v)
	fx := float64(x)
	s.cost += s.m.obj[v] * fx
	for _, o := range s.watch[v] {
		s.minAct[o.con] += o.coef*fx - math.Min(o.coef, 0)
		s.maxAct[o.con] += o.coef*fx - math.Max(o.coef, 0)
		s.enqueue(o.con)
	}
	return true
}

func (s *search) undo(mark int) {
	for len(s.trail) > mark {
		v := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		fx := float64(s.val[v])
		s.cost -= s.m.obj[v] * fx
		for _, o := range s.watch[v] {
			s.minAct[o.con] -= o.coef*fx - math.Min(o.coef, 0)
			s.maxAct[o.con] -= o.coef*fx - math.Max(o.coef, 0)
		}
		s.val[v] = free
	}
}

func (s *search) propagate() bool {
	for len(s.queue) > 0 {
		ci := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		s.queued[ci] = false
		if !s.check(ci) {
			for _, q := range s.queue {
				s.queued[q] = false
			}
			s.queue = s.queue[:0]
			return false
		}
	}
	return true
}

// check tests constraint ci against its activity bounds and fixes every
// free variable whose value is implied.
func (s *search) check(ci int) bool {
	c := &s.m.cons[ci]
	if s.minAct[ci] > c.Upper+eps || s.maxAct[ci] < c.Lower-eps {
		return false
	}
	mc := s.maxCoef[ci]
	if s.minAct[ci]+mc <= c.Upper+eps && s.maxAct[ci]-mc >= c.Lower-eps {
		return true
	}
	for _, t := range c.Terms {
		if s.val[t.Var] != free || t.Coef == 0 {
			continue
		}
		a := t.Coef
		force := free
		if a > 0 {
			if s.minAct[ci]+a > c.Upper+eps {
				force = 0
			} else if s.maxAct[ci]-a < c.Lower-eps {
				force = 1
			}
		} else {
			if s.minAct[ci]-a > c.Upper+eps {
				force = 1
			} else if s.maxAct[ci]+a < c.Lower-eps {
				force = 0
			}
		}
		if force != free {
			s.fix(t.Var, force)
		}
	}
	return s.minAct[ci] <= c.Upper+eps && s.maxAct[ci] >= c.Lower-eps
}

// rowNeed is how many more variables of cover row ci must be set.
func (s *search) rowNeed(ci int) int {
	return int(math.Ceil(s.m.cons[ci].Lower - s.minAct[ci] - eps))
}

func (s *search) bound() (float64, bool) {
	lb := s.cost
	var costs []float64
	for _, ci := range s.cover {
		need := s.rowNeed(ci)
		if need <= 0 {
			continue
		}
		costs = costs[:0]
		for _, t := range s.m.cons[ci].Terms {
			if s.val[t.Var] == free {
				costs = append(costs, s.m.obj[t.Var])
			}
		}
		if len(costs) < need {
			return 0, false
		}
		if need == 1 {
			low := costs[0]
			for _, c := range costs[1:] {
				low = math.Min(low, c)
			}
			lb += low
			continue
		}
		sort.Float64s(costs)
		for _, c := range costs[:need] {
			lb += c
		}
	}
	for _, v := range s.negFree {
		if s.val[v] == free {
			lb += s.m.obj[v]
		}
	}
	return math.Max(lb, s.rootBound), true
}

// pickRow returns the open cover row with the fewest free variables.
func (s *search) pickRow() int {
	best, bestFree := -1, math.MaxInt
	for _, ci := range s.cover {
		if s.rowNeed(ci) <= 0 {
			continue
		}
		if f := int(math.Round(s.maxAct[ci] - s.minAct[ci])); f < bestFree {
			best, bestFree = ci, f
		}
	}
	return best
}

func (s *search) dive() {
	if s.stopped || s.done {
		return
	}
	s.nodes++
	if s.nodeLimit > 0 && s.nodes > s.nodeLimit {
		s.stopped = true
		return
	}
	if s.nodes&127 == 0 && s.ctx.Err() != nil {
		s.stopped = true
		return
	}
	lb, ok := s.bound()
	if !ok || (s.haveBest && lb >= s.bestObj-eps) {
		return
	}
	if row := s.pickRow(); row >= 0 {
		s.branchRow(row)
		return
	}
	for v := range s.val {
		if s.val[v] == free {
			s.branchVar(Var(v))
			return
		}
	}
	s.record()
}

func (s *search) branchRow(ci int) {
	var cands []Var
	for _, t := range s.m.cons[ci].Terms {
		if s.val[t.Var] == free {
			cands = append(cands, t.Var)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		oi, oj := s.m.obj[cands[i]], s.m.obj[cands[j]]
		if oi != oj {
			return oi < oj
		}
		return cands[i] < cands[j]
	})

	mark := len(s.trail)
	for _, v := range cands {
		if s.rowNeed(ci) <= 0 {
			s.dive()
			break
		}
		if s.val[v] != free {
			continue
		}
		m := len(s.trail)
		if s.fix(v, 1) && s.propagate() {
			s.dive()
		}
		s.undo(m)
		if s.stopped || s.done {
			break
		}
		if !s.fix(v, 0) || !s.propagate() {
			break
		}
	}
	s.undo(mark)
}

func (s *search) branchVar(v Var) {
	first := int8(0)
	if s.m.obj[v] < 0 {
		first = 1
	}
	for _, x := range []int8{first, 1 - first} {
		m := len(s.trail)
		if s.fix(v, x) && s.propagate() {
			s.dive()
		}
		s.undo(m)
		if s.stopped || s.done {
			return
		}
	}
}

// useHint installs the model's hint as the incumbent when it agrees with
// the root fixings and satisfies every constraint.
func (s *search) useHint() bool {
	if !s.m.HasHint() {
		return false
	}
	x := make([]int8, len(s.val))
	obj := 0.0
	for v := range x {
		if v < len(s.m.hint) && s.m.hint[v] == 1 {
			x[v] = 1
		}
		if s.val[v] != free && s.val[v] != x[v] {
			return false
		}
		obj += s.m.obj[v] * float64(x[v])
	}
	for _, c := range s.m.cons {
		act := 0.0
		for _, t := range c.Terms {
			act += t.Coef * float64(x[t.Var])
		}
		if act < c.Lower-eps || act > c.Upper+eps {
			return false
		}
	}
	s.best = x
	s.bestObj = obj
	s.haveBest = true
	if obj <= s.rootBound+1e-6 {
		s.done = true
	}
	return true
}

func (s *search) record() {
	if s.haveBest && s.cost >= s.bestObj-eps {
		return
	}
	s.best = append(s.best[:0], s.val...)
	s.bestObj = s.cost
	s.haveBest = true
	if s.cost <= s.rootBound+1e-6 {
		s.done = true
	}
}
