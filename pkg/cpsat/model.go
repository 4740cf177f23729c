package cpsat

// Package cpsat implements a small boolean constraint solver used by the
// timetable generator. The model API follows the shape of the usual CP-SAT
// engines: boolean variables, linear sum constraints over them, reified
// OR/AND equalities, and a weighted maximization objective.

// BoolVar identifies a boolean decision variable inside a Model.
type BoolVar int32

// Term is one weighted variable of the objective.
type Term struct {
	Var   BoolVar
	Coeff int
}

type linear struct {
	vars []BoolVar
	min  int
	max  int
}

type reified struct {
	target   BoolVar
	operands []BoolVar
}

// Model collects variables and constraints prior to solving.
type Model struct {
	names    []string
	linears  []linear
	ors      []reified
	ands     []reified
	objTerms []Term
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewBoolVar declares a fresh boolean variable. The name is only used for
// diagnostics and need not be unique.
func (m *Model) NewBoolVar(name string) BoolVar {
	m.names = append(m.names, name)
	return BoolVar(len(m.names) - 1)
}

// NumVars reports the number of declared variables.
func (m *Model) NumVars() int {
	return len(m.names)
}

// Name returns the diagnostic name of a variable.
func (m *Model) Name(v BoolVar) string {
	return m.names[v]
}

// AddSumEqual constrains the sum of vars to equal k.
func (m *Model) AddSumEqual(vars []BoolVar, k int) {
	m.linears = append(m.linears, linear{vars: cloneVars(vars), min: k, max: k})
}

// AddSumAtMost constrains the sum of vars to be at most k.
func (m *Model) AddSumAtMost(vars []BoolVar, k int) {
	m.linears = append(m.linears, linear{vars: cloneVars(vars), min: 0, max: k})
}

// AddFixed pins a variable to a constant value (0 or 1).
func (m *Model) AddFixed(v BoolVar, value int) {
	m.linears = append(m.linears, linear{vars: []BoolVar{v}, min: value, max: value})
}

// AddMaxEquality constrains target to equal the OR of the operands.
func (m *Model) AddMaxEquality(target BoolVar, operands []BoolVar) {
	m.ors = append(m.ors, reified{target: target, operands: cloneVars(operands)})
}

// AddMultiplicationEquality constrains target to equal the AND of the
// operands (boolean multiplication).
func (m *Model) AddMultiplicationEquality(target BoolVar, operands []BoolVar) {
	m.ands = append(m.ands, reified{target: target, operands: cloneVars(operands)})
}

// Maximize sets the objective. Calling it again replaces the previous
// objective. Terms referencing the same variable are summed.
func (m *Model) Maximize(terms []Term) {
	m.objTerms = append([]Term(nil), terms...)
}

func cloneVars(vars []BoolVar) []BoolVar {
	return append([]BoolVar(nil), vars...)
}
