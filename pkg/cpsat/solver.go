package cpsat

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the terminal state of a solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// Solver runs a deterministic branch-and-bound search over a Model. The
// search space is split into subtrees on the first few branching variables
// and the subtrees are distributed over Workers goroutines; results are
// merged in subtree order so identical inputs produce identical outputs.
type Solver struct {
	TimeLimit time.Duration
	Workers   int
	Seed      int64
}

// Solution carries the solve status and, when feasible, the assignment.
type Solution struct {
	Status    Status
	Objective int

	values []int8
}

// Feasible reports whether the solution carries a usable assignment.
func (s Solution) Feasible() bool {
	return s.Status == StatusOptimal || s.Status == StatusFeasible
}

// Value reads a variable from the assignment.
func (s Solution) Value(v BoolVar) bool {
	return s.values != nil && s.values[v] == 1
}

type problem struct {
	m        *Model
	order    []BoolVar
	varLin   [][]int32
	varOr    [][]int32
	varAnd   [][]int32
	objCoeff []int
	objPos   int
}

type subtreeResult struct {
	found     bool
	objective int
	values    []int8
	complete  bool
}

// Solve searches the model within the configured time budget.
func (s *Solver) Solve(m *Model) Solution {
	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	limit := s.TimeLimit
	if limit <= 0 {
		limit = 60 * time.Second
	}
	deadline := time.Now().Add(limit)

	// A constraint with fewer variables than its required minimum can never
	// be satisfied; propagation alone would not notice an empty one.
	for i := range m.linears {
		if len(m.linears[i].vars) < m.linears[i].min {
			return Solution{Status: StatusInfeasible}
		}
	}

	n := m.NumVars()
	if n == 0 {
		return Solution{Status: StatusOptimal}
	}
	p := buildProblem(m, s.Seed)

	prefixBits := 0
	for (1<<prefixBits) < workers && prefixBits < n {
		prefixBits++
	}
	subtrees := 1 << prefixBits
	if workers > subtrees {
		workers = subtrees
	}

	results := make([]subtreeResult, subtrees)
	sharedBest := int64(math.MinInt64)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := newSearchState(p)
			for j := range jobs {
				st.reset()
				ok := true
				for b := 0; b < prefixBits && ok; b++ {
					ok = st.assign(p.order[b], int8((j>>b)&1))
				}
				res := &results[j]
				if !ok {
					res.complete = true
					continue
				}
				res.complete = st.dfs(prefixBits, deadline, &sharedBest, res)
			}
		}()
	}
	for j := 0; j < subtrees; j++ {
		jobs <- j
	}
	close(jobs)
	wg.Wait()

	allComplete := true
	found := false
	bestObj := 0
	var bestVals []int8
	for i := range results {
		r := &results[i]
		if !r.complete {
			allComplete = false
		}
		if r.found && (!found || r.objective > bestObj) {
			found = true
			bestObj = r.objective
			bestVals = r.values
		}
	}

	switch {
	case found && allComplete:
		return Solution{Status: StatusOptimal, Objective: bestObj, values: bestVals}
	case found:
		return Solution{Status: StatusFeasible, Objective: bestObj, values: bestVals}
	case allComplete:
		return Solution{Status: StatusInfeasible}
	default:
		return Solution{Status: StatusUnknown}
	}
}

func buildProblem(m *Model, seed int64) *problem {
	n := m.NumVars()
	p := &problem{
		m:        m,
		order:    make([]BoolVar, n),
		varLin:   make([][]int32, n),
		varOr:    make([][]int32, n),
		varAnd:   make([][]int32, n),
		objCoeff: make([]int, n),
	}

	offset := 0
	if seed != 0 {
		offset = int(seed % int64(n))
		if offset < 0 {
			offset += n
		}
	}
	for i := 0; i < n; i++ {
		p.order[i] = BoolVar((i + offset) % n)
	}

	for li := range m.linears {
		for _, v := range m.linears[li].vars {
			p.varLin[v] = append(p.varLin[v], int32(li))
		}
	}
	for ri := range m.ors {
		r := &m.ors[ri]
		p.varOr[r.target] = append(p.varOr[r.target], int32(ri))
		for _, v := range r.operands {
			p.varOr[v] = append(p.varOr[v], int32(ri))
		}
	}
	for ri := range m.ands {
		r := &m.ands[ri]
		p.varAnd[r.target] = append(p.varAnd[r.target], int32(ri))
		for _, v := range r.operands {
			p.varAnd[v] = append(p.varAnd[v], int32(ri))
		}
	}
	for _, t := range m.objTerms {
		p.objCoeff[t.Var] += t.Coeff
	}
	for _, c := range p.objCoeff {
		if c > 0 {
			p.objPos += c
		}
	}
	return p
}

type pendAssign struct {
	v   BoolVar
	val int8
}

type searchState struct {
	p           *problem
	values      []int8
	trail       []BoolVar
	linOnes     []int
	linFree     []int
	objAssigned int
	objPosFree  int
	nodes       uint64
	pending     []pendAssign
}

func newSearchState(p *problem) *searchState {
	return &searchState{
		p:       p,
		values:  make([]int8, p.m.NumVars()),
		linOnes: make([]int, len(p.m.linears)),
		linFree: make([]int, len(p.m.linears)),
	}
}

func (s *searchState) reset() {
	for i := range s.values {
		s.values[i] = -1
	}
	s.trail = s.trail[:0]
	for li := range s.p.m.linears {
		s.linOnes[li] = 0
		s.linFree[li] = len(s.p.m.linears[li].vars)
	}
	s.objAssigned = 0
	s.objPosFree = s.p.objPos
}

// assign sets v=val and runs propagation to a fixed point. It returns false
// on conflict; the caller is responsible for undoing via the trail mark.
func (s *searchState) assign(v BoolVar, val int8) bool {
	s.pending = s.pending[:0]
	s.pending = append(s.pending, pendAssign{v, val})

	for len(s.pending) > 0 {
		cur := s.pending[0]
		s.pending = s.pending[1:]

		existing := s.values[cur.v]
		if existing != -1 {
			if existing != cur.val {
				return false
			}
			continue
		}
		s.values[cur.v] = cur.val
		s.trail = append(s.trail, cur.v)

		if c := s.p.objCoeff[cur.v]; c != 0 {
			if c > 0 {
				s.objPosFree -= c
			}
			if cur.val == 1 {
				s.objAssigned += c
			}
		}

		for _, li := range s.p.varLin[cur.v] {
			lin := &s.p.m.linears[li]
			s.linFree[li]--
			if cur.val == 1 {
				s.linOnes[li]++
			}
			ones, free := s.linOnes[li], s.linFree[li]
			if ones > lin.max || ones+free < lin.min {
				return false
			}
			if free > 0 {
				if ones == lin.max {
					for _, w := range lin.vars {
						if s.values[w] == -1 {
							s.pending = append(s.pending, pendAssign{w, 0})
						}
					}
				} else if ones+free == lin.min {
					for _, w := range lin.vars {
						if s.values[w] == -1 {
							s.pending = append(s.pending, pendAssign{w, 1})
						}
					}
				}
			}
		}

		for _, ri := range s.p.varOr[cur.v] {
			if !s.checkOr(ri) {
				return false
			}
		}
		for _, ri := range s.p.varAnd[cur.v] {
			if !s.checkAnd(ri) {
				return false
			}
		}
	}
	return true
}

func (s *searchState) checkOr(ri int32) bool {
	r := &s.p.m.ors[ri]
	ones, free := 0, 0
	var lastFree BoolVar
	for _, w := range r.operands {
		switch s.values[w] {
		case 1:
			ones++
		case -1:
			free++
			lastFree = w
		}
	}
	t := s.values[r.target]
	switch {
	case ones > 0:
		if t == 0 {
			return false
		}
		if t == -1 {
			s.pending = append(s.pending, pendAssign{r.target, 1})
		}
	case free == 0:
		if t == 1 {
			return false
		}
		if t == -1 {
			s.pending = append(s.pending, pendAssign{r.target, 0})
		}
	case t == 0:
		for _, w := range r.operands {
			if s.values[w] == -1 {
				s.pending = append(s.pending, pendAssign{w, 0})
			}
		}
	case t == 1 && free == 1:
		s.pending = append(s.pending, pendAssign{lastFree, 1})
	}
	return true
}

func (s *searchState) checkAnd(ri int32) bool {
	r := &s.p.m.ands[ri]
	zeros, free := 0, 0
	var lastFree BoolVar
	for _, w := range r.operands {
		switch s.values[w] {
		case 0:
			zeros++
		case -1:
			free++
			lastFree = w
		}
	}
	t := s.values[r.target]
	switch {
	case zeros > 0:
		if t == 1 {
			return false
		}
		if t == -1 {
			s.pending = append(s.pending, pendAssign{r.target, 0})
		}
	case free == 0:
		if t == 0 {
			return false
		}
		if t == -1 {
			s.pending = append(s.pending, pendAssign{r.target, 1})
		}
	case t == 1:
		for _, w := range r.operands {
			if s.values[w] == -1 {
				s.pending = append(s.pending, pendAssign{w, 1})
			}
		}
	case t == 0 && free == 1:
		s.pending = append(s.pending, pendAssign{lastFree, 0})
	}
	return true
}

func (s *searchState) undoTo(mark int) {
	for len(s.trail) > mark {
		v := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		val := s.values[v]
		s.values[v] = -1

		if c := s.p.objCoeff[v]; c != 0 {
			if c > 0 {
				s.objPosFree += c
			}
			if val == 1 {
				s.objAssigned -= c
			}
		}
		for _, li := range s.p.varLin[v] {
			s.linFree[li]++
			if val == 1 {
				s.linOnes[li]--
			}
		}
	}
}

// dfs explores the subtree rooted at the current partial assignment.
// It returns true when the subtree was exhausted and false on timeout.
func (s *searchState) dfs(pos int, deadline time.Time, sharedBest *int64, res *subtreeResult) bool {
	s.nodes++
	if s.nodes&1023 == 0 && time.Now().After(deadline) {
		return false
	}

	order := s.p.order
	for pos < len(order) && s.values[order[pos]] != -1 {
		pos++
	}
	if pos == len(order) {
		obj := s.objAssigned
		if !res.found || obj > res.objective {
			res.found = true
			res.objective = obj
			res.values = append(res.values[:0], s.values...)
			for {
				cur := atomic.LoadInt64(sharedBest)
				if int64(obj) <= cur || atomic.CompareAndSwapInt64(sharedBest, cur, int64(obj)) {
					break
				}
			}
		}
		return true
	}

	ub := s.objAssigned + s.objPosFree
	if res.found && ub <= res.objective {
		return true
	}
	// Strictly-worse subtrees are pruned against the cross-worker best;
	// equal-objective solutions are kept so the merge stays deterministic.
	if int64(ub) < atomic.LoadInt64(sharedBest) {
		return true
	}

	v := order[pos]
	for _, val := range [2]int8{1, 0} {
		mark := len(s.trail)
		if s.assign(v, val) {
			if !s.dfs(pos+1, deadline, sharedBest, res) {
				s.undoTo(mark)
				return false
			}
		}
		s.undoTo(mark)
	}
	return true
}
