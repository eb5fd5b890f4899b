package domain

import (
	"strconv"
	"strings"
)

// Receiver names with special meaning to the evaluator and the loop.
const (
	ReceiverMemory = "Memory"
	ReceiverTTS    = "TTS"
	MethodSpeak    = "speak"
)

// Expression is a node of the rule language AST.
// The set of variants is closed: only types in this package implement it.
type Expression interface {
	// String renders the expression back to rule-language source.
	String() string
	isExpression()
}

// StringLiteral is an immutable text constant.
type StringLiteral struct {
	Value string
}

// FunctionCall invokes Method on the capability named Receiver.
type FunctionCall struct {
	Receiver string
	Method   string
	Args     []Expression
}

// EqualsExpr compares two operands structurally.
type EqualsExpr struct {
	Left, Right Expression
}

// AndExpr is a non short-circuiting logical conjunction.
type AndExpr struct {
	Left, Right Expression
}

// OrExpr is a non short-circuiting logical disjunction.
type OrExpr struct {
	Left, Right Expression
}

// PatternMatch tests Text against a glob/placeholder pattern.
type PatternMatch struct {
	Pattern string
	Text    Expression
}

// ExtractParam yields the Index-th captured group of Pattern applied to Text.
type ExtractParam struct {
	Pattern string
	Text    Expression
	Index   int
}

func (StringLiteral) isExpression() {}
func (FunctionCall) isExpression()  {}
func (EqualsExpr) isExpression()    {}
func (AndExpr) isExpression()       {}
func (OrExpr) isExpression()        {}
func (PatternMatch) isExpression()  {}
func (ExtractParam) isExpression()  {}

func (e StringLiteral) String() string { return Quote(e.Value) }

func (e FunctionCall) String() string {
	return e.Receiver + "." + e.Method + "(" + joinExpressions(e.Args) + ")"
}

func (e EqualsExpr) String() string { return e.Left.String() + " == " + e.Right.String() }

func (e AndExpr) String() string { return e.Left.String() + " && " + e.Right.String() }

func (e OrExpr) String() string { return e.Left.String() + " || " + e.Right.String() }

func (e PatternMatch) String() string {
	return "PatternMatch(" + Quote(e.Pattern) + ", " + e.Text.String() + ")"
}

func (e ExtractParam) String() string {
	s := "ExtractParam(" + Quote(e.Pattern) + ", " + e.Text.String()
	if e.Index != 0 {
		s += ", " + strconv.Itoa(e.Index)
	}
	return s + ")"
}

// IsCall reports whether expr is a call to receiver.method.
func IsCall(expr Expression, receiver, method string) bool {
	call, ok := expr.(FunctionCall)
	return ok && call.Receiver == receiver && call.Method == method
}

// Quote renders s as a rule-language string literal, escaping '"' and '\\'.
func Quote(s string) string {
	if !strings.ContainsAny(s, `"\\`) {
		return `"` + s + `"`
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
