package dsl

import "github.com/aretw0/reflex/pkg/domain"

// Lit is a string literal.
func Lit(s string) domain.Expression {
	return domain.StringLiteral{Value: s}
}

// Call invokes method on the capability named receiver.
func Call(receiver, method string, args ...domain.Expression) domain.Expression {
	if args == nil {
		args = []domain.Expression{}
	}
	return domain.FunctionCall{Receiver: receiver, Method: method, Args: args}
}

// Eq compares two operands.
func Eq(left, right domain.Expression) domain.Expression {
	return domain.EqualsExpr{Left: left, Right: right}
}

// And joins conditions left to right, the way the parser groups them.
func And(first domain.Expression, rest ...domain.Expression) domain.Expression {
	out := first
	for _, e := range rest {
		out = domain.AndExpr{Left: out, Right: e}
	}
	return out
}

// Or joins conditions left to right.
func Or(first domain.Expression, rest ...domain.Expression) domain.Expression {
	out := first
	for _, e := range rest {
		out = domain.OrExpr{Left: out, Right: e}
	}
	return out
}

// Match tests text against a glob pattern.
func Match(pattern string, text domain.Expression) domain.Expression {
	return domain.PatternMatch{Pattern: pattern, Text: text}
}

// Extract yields the index-th wildcard capture of pattern applied to text.
func Extract(pattern string, text domain.Expression, index int) domain.Expression {
	return domain.ExtractParam{Pattern: pattern, Text: text, Index: index}
}

// ParamRef names a Memory parameter.
type ParamRef string

// Param refers to the Memory parameter called name.
func Param(name string) ParamRef { return ParamRef(name) }

// Expr reads the current value.
func (p ParamRef) Expr() domain.Expression {
	return Call(domain.ReceiverMemory, "getStateParam", Lit(string(p)))
}

// Previous reads the value before the current one.
func (p ParamRef) Previous() domain.Expression {
	return Call(domain.ReceiverMemory, "getPreviousStateParam", Lit(string(p)))
}

// Is compares the current value with a literal.
func (p ParamRef) Is(value string) domain.Expression {
	return Eq(p.Expr(), Lit(value))
}

// Set writes value to the parameter.
func (p ParamRef) Set(value domain.Expression) domain.Expression {
	return Call(domain.ReceiverMemory, "setStateParam", Lit(string(p)), value)
}

// SetParam writes a literal to a Memory parameter.
func SetParam(name, value string) domain.Expression {
	return Param(name).Set(Lit(value))
}

// Speak says text. Rules containing it run on the loop goroutine.
func Speak(text string) domain.Expression {
	return Call(domain.ReceiverTTS, domain.MethodSpeak, Lit(text))
}
