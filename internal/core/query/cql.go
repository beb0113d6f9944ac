package query

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/rotisserie/eris"

	"github.com/hearthsim/hearth/internal/core/ecs"
)

// Component query language:
//
//	CONTAINS(health, hunger) & !CONTAINS(dead) | EXACT(marker)
//
// Operators have equal precedence and fold left to right; use parentheses to
// group.

type cqlOperator int

const (
	opAnd cqlOperator = iota
	opOr
)

var operatorMap = map[string]cqlOperator{"&": opAnd, "|": opOr}

func (o *cqlOperator) Capture(s []string) error {
	*o = operatorMap[s[0]]
	return nil
}

type cqlComponent struct {
	Name string `parser:"@Ident"`
}

type cqlNot struct {
	SubExpression *cqlValue `parser:"\"!\" @@"`
}

type cqlExact struct {
	Components []*cqlComponent `parser:"\"EXACT\" \"(\" (@@ \",\")* @@ \")\""`
}

type cqlContains struct {
	Components []*cqlComponent `parser:"\"CONTAINS\" \"(\" (@@ \",\")* @@ \")\""`
}

type cqlValue struct {
	Exact         *cqlExact    `parser:"@@"`
	Contains      *cqlContains `parser:"| @@"`
	Not           *cqlNot      `parser:"| @@"`
	Subexpression *cqlTerm     `parser:"| \"(\" @@ \")\""`
}

type cqlFactor struct {
	Base *cqlValue `parser:"@@"`
}

type cqlOpFactor struct {
	Operator cqlOperator `parser:"@(\"&\" | \"|\")"`
	Factor   *cqlFactor  `parser:"@@"`
}

type cqlTerm struct {
	Left  *cqlFactor     `parser:"@@"`
	Right []*cqlOpFactor `parser:"@@*"`
}

func (o cqlOperator) String() string {
	if o == opOr {
		return "|"
	}
	return "&"
}

func (c *cqlContains) String() string { return "CONTAINS(" + joinNames(c.Components) + ")" }
func (e *cqlExact) String() string    { return "EXACT(" + joinNames(e.Components) + ")" }

func (v *cqlValue) String() string {
	switch {
	case v.Exact != nil:
		return v.Exact.String()
	case v.Contains != nil:
		return v.Contains.String()
	case v.Not != nil:
		return "!" + v.Not.SubExpression.String()
	case v.Subexpression != nil:
		return "(" + v.Subexpression.String() + ")"
	}
	return ""
}

func (t *cqlTerm) String() string {
	out := []string{t.Left.Base.String()}
	for _, r := range t.Right {
		out = append(out, r.Operator.String(), r.Factor.Base.String())
	}
	return strings.Join(out, " ")
}

func joinNames(cs []*cqlComponent) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

var cqlParser = participle.MustBuild[cqlTerm]()

// ErrSyntax wraps every parse failure.
var ErrSyntax = eris.New("invalid component query")

// Compile parses a query into a Filter.
func Compile(src string) (Filter, error) {
	term, err := cqlParser.ParseString("", src)
	if err != nil {
		return nil, eris.Wrapf(ErrSyntax, "%q: %v", src, err)
	}
	return termToFilter(term), nil
}

// Canonical re-renders a query in normalised form.
func Canonical(src string) (string, error) {
	term, err := cqlParser.ParseString("", src)
	if err != nil {
		return "", eris.Wrapf(ErrSyntax, "%q: %v", src, err)
	}
	return term.String(), nil
}

func termToFilter(t *cqlTerm) Filter {
	acc := valueToFilter(t.Left.Base)
	for _, r := range t.Right {
		next := valueToFilter(r.Factor.Base)
		if r.Operator == opOr {
			acc = Or(acc, next)
		} else {
			acc = And(acc, next)
		}
	}
	return acc
}

func valueToFilter(v *cqlValue) Filter {
	switch {
	case v.Exact != nil:
		return Exact(componentTypes(v.Exact.Components)...)
	case v.Contains != nil:
		return Contains(componentTypes(v.Contains.Components)...)
	case v.Not != nil:
		return Not(valueToFilter(v.Not.SubExpression))
	case v.Subexpression != nil:
		return termToFilter(v.Subexpression)
	}
	panic("query: empty value node")
}

func componentTypes(cs []*cqlComponent) []ecs.ComponentType {
	out := make([]ecs.ComponentType, len(cs))
	for i, c := range cs {
		out[i] = ecs.ComponentType(c.Name)
	}
	return out
}
