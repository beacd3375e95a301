package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is the comparison applied by one parameter condition.
type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpContains
	OpGreaterThan
	OpGreaterEqualThan
	OpLessThan
	OpLessEqualThan
)

// String returns the string representation of the operator
func (o Operator) String() string {
	switch o {
	case OpEquals:
		return "equals"
	case OpNotEquals:
		return "notequals"
	case OpContains:
		return "contains"
	case OpGreaterThan:
		return "greaterthan"
	case OpGreaterEqualThan:
		return "greaterequalthan"
	case OpLessThan:
		return "lessthan"
	case OpLessEqualThan:
		return "lessequalthan"
	default:
		return "unknown"
	}
}

// ParseOperator converts a string to an Operator
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "equals", "":
		return OpEquals, nil
	case "notequals":
		return OpNotEquals, nil
	case "contains":
		return OpContains, nil
	case "greaterthan":
		return OpGreaterThan, nil
	case "greaterequalthan":
		return OpGreaterEqualThan, nil
	case "lessthan":
		return OpLessThan, nil
	case "lessequalthan":
		return OpLessEqualThan, nil
	default:
		return 0, fmt.Errorf("unknown condition operator: %s", s)
	}
}

// Condition compares one submitted parameter against a literal value.
type Condition struct {
	Parameter string   // parameter id to look up
	Value     string   // comparison value
	Op        Operator // comparison operator
}

// holds evaluates the condition against the submitted parameter map. An
// absent parameter is treated as a null value: equals, contains and all
// ordering operators are false against null; notequals is true.
func (c Condition) holds(parameters map[string]string) bool {
	value, present := parameters[c.Parameter]
	if !present {
		return c.Op == OpNotEquals
	}

	switch c.Op {
	case OpEquals:
		return value == c.Value
	case OpNotEquals:
		return value != c.Value
	case OpContains:
		// Multi-valued parameters hold comma-separated choices; the
		// condition holds if the comparison value is one of them. Note the
		// membership direction: the comparison value is looked up inside
		// the submitted value, not the other way around.
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == c.Value {
				return true
			}
		}
		return false
	case OpGreaterThan, OpGreaterEqualThan, OpLessThan, OpLessEqualThan:
		return compareOrdered(value, c.Value, c.Op)
	default:
		return false
	}
}

// compareOrdered applies an ordering operator. When both operands parse as
// numbers the comparison is numeric, otherwise lexicographic.
func compareOrdered(left, right string, op Operator) bool {
	lf, lerr := strconv.ParseFloat(strings.TrimSpace(left), 64)
	rf, rerr := strconv.ParseFloat(strings.TrimSpace(right), 64)

	var cmp int
	if lerr == nil && rerr == nil {
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(left, right)
	}

	switch op {
	case OpGreaterThan:
		return cmp > 0
	case OpGreaterEqualThan:
		return cmp >= 0
	case OpLessThan:
		return cmp < 0
	case OpLessEqualThan:
		return cmp <= 0
	default:
		return false
	}
}

// Terminal is a value a ParameterCondition branch may resolve to: an input
// template, an output template, or a metafield, depending on where the
// condition appears.
type Terminal interface {
	isBranchTerminal()
}

// Branch is one arm of a ParameterCondition: either a terminal or a nested
// condition. Exactly one of the two fields is set.
type Branch struct {
	Terminal  Terminal
	Condition *ParameterCondition
}

// TerminalBranch wraps a terminal in a branch.
func TerminalBranch(t Terminal) Branch {
	return Branch{Terminal: t}
}

// ConditionBranch wraps a nested condition in a branch.
func ConditionBranch(c *ParameterCondition) Branch {
	return Branch{Condition: c}
}

// empty reports whether the branch has neither arm set.
func (b Branch) empty() bool {
	return b.Terminal == nil && b.Condition == nil
}

// maxConditionDepth bounds the nesting of then/otherwise chains. The
// structure is a tree by construction; the guard turns an accidental cycle
// or runaway nesting into a configuration error instead of a hang.
const maxConditionDepth = 64

// ParameterCondition selects between alternative branches based on the
// submitted parameters. Conditions are configuration data: built once,
// never mutated during evaluation.
type ParameterCondition struct {
	Conditions  []Condition
	Disjunction bool    // OR across conditions instead of AND
	Then        Branch  // mandatory
	Otherwise   *Branch // optional
}

// Validate checks the structural invariants: a then branch must be present
// at every level and the nesting depth must stay within bounds.
func (pc *ParameterCondition) Validate() error {
	return pc.validate(0)
}

func (pc *ParameterCondition) validate(depth int) error {
	if depth >= maxConditionDepth {
		return fmt.Errorf("parameter condition nesting exceeds %d levels", maxConditionDepth)
	}
	if pc.Then.empty() {
		return fmt.Errorf("parameter condition has no then branch")
	}
	if pc.Then.Condition != nil {
		if err := pc.Then.Condition.validate(depth + 1); err != nil {
			return err
		}
	}
	if pc.Otherwise != nil {
		if pc.Otherwise.empty() {
			return fmt.Errorf("parameter condition has an empty otherwise branch")
		}
		if pc.Otherwise.Condition != nil {
			if err := pc.Otherwise.Condition.validate(depth + 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Match evaluates the condition list against the submitted parameters.
// Under conjunction every condition must hold; under disjunction one
// suffices. Evaluation short-circuits either way.
func (pc *ParameterCondition) Match(parameters map[string]string) bool {
	for _, c := range pc.Conditions {
		if c.holds(parameters) {
			if pc.Disjunction {
				return true
			}
		} else {
			if !pc.Disjunction {
				return false
			}
		}
	}
	return !pc.Disjunction
}

// Evaluate resolves the condition to a terminal. The second return value
// distinguishes "no match" from a matched terminal; callers must check it
// before using the terminal.
func (pc *ParameterCondition) Evaluate(parameters map[string]string) (Terminal, bool) {
	return pc.evaluate(parameters, 0)
}

func (pc *ParameterCondition) evaluate(parameters map[string]string, depth int) (Terminal, bool) {
	if depth >= maxConditionDepth {
		return nil, false
	}
	if pc.Match(parameters) {
		if pc.Then.Condition != nil {
			return pc.Then.Condition.evaluate(parameters, depth+1)
		}
		return pc.Then.Terminal, true
	}
	if pc.Otherwise != nil {
		if pc.Otherwise.Condition != nil {
			return pc.Otherwise.Condition.evaluate(parameters, depth+1)
		}
		return pc.Otherwise.Terminal, true
	}
	return nil, false
}

// AllPossibilities collects every terminal reachable through then/otherwise
// branches, depth-first. It exists for construction-time validation only.
func (pc *ParameterCondition) AllPossibilities() []Terminal {
	return pc.allPossibilities(0)
}

func (pc *ParameterCondition) allPossibilities(depth int) []Terminal {
	if depth >= maxConditionDepth {
		return nil
	}
	var terminals []Terminal
	if pc.Then.Condition != nil {
		terminals = append(terminals, pc.Then.Condition.allPossibilities(depth+1)...)
	} else if pc.Then.Terminal != nil {
		terminals = append(terminals, pc.Then.Terminal)
	}
	if pc.Otherwise != nil {
		if pc.Otherwise.Condition != nil {
			terminals = append(terminals, pc.Otherwise.Condition.allPossibilities(depth+1)...)
		} else if pc.Otherwise.Terminal != nil {
			terminals = append(terminals, pc.Otherwise.Terminal)
		}
	}
	return terminals
}

// Describe returns a serializable description of the condition tree.
func (pc *ParameterCondition) Describe() ConditionDescription {
	conditions := make([]ConditionClause, len(pc.Conditions))
	for i, c := range pc.Conditions {
		conditions[i] = ConditionClause{
			Parameter: c.Parameter,
			Operator:  c.Op.String(),
			Value:     c.Value,
		}
	}
	desc := ConditionDescription{
		Conditions:  conditions,
		Disjunction: pc.Disjunction,
		Then:        describeBranch(pc.Then),
	}
	if pc.Otherwise != nil {
		otherwise := describeBranch(*pc.Otherwise)
		desc.Otherwise = &otherwise
	}
	return desc
}

func describeBranch(b Branch) BranchDescription {
	if b.Condition != nil {
		nested := b.Condition.Describe()
		return BranchDescription{Condition: &nested}
	}
	return BranchDescription{Terminal: describeTerminal(b.Terminal)}
}

// describeTerminal renders a terminal for presentation. The concrete types
// living behind Terminal each know how to describe themselves.
func describeTerminal(t Terminal) interface{} {
	switch v := t.(type) {
	case *InputTemplate:
		return v.Describe()
	case *OutputTemplate:
		return v.Describe()
	case MetaField:
		return v.Describe()
	default:
		return nil
	}
}

// ConditionDescription is the presentation-layer shape of a condition tree.
type ConditionDescription struct {
	Conditions  []ConditionClause  `json:"conditions"`
	Disjunction bool               `json:"disjunction,omitempty"`
	Then        BranchDescription  `json:"then"`
	Otherwise   *BranchDescription `json:"otherwise,omitempty"`
}

// ConditionClause is one comparison in a condition description.
type ConditionClause struct {
	Parameter string `json:"parameter"`
	Operator  string `json:"operator"`
	Value     string `json:"value"`
}

// BranchDescription is one arm of a described condition.
type BranchDescription struct {
	Terminal  interface{}           `json:"terminal,omitempty"`
	Condition *ConditionDescription `json:"condition,omitempty"`
}
