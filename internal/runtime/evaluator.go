package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/pattern"
	"github.com/aretw0/reflex/pkg/ports"
	"github.com/aretw0/reflex/pkg/registry"
)

// Env is what expressions are evaluated against.
type Env struct {
	Memory   ports.Memory
	Registry *registry.Registry
}

// Evaluate reduces expr to a value. Calls run their side effects in
// left-to-right order; logical operators evaluate both operands.
// Failures are reported as *domain.EvaluationError.
func Evaluate(ctx context.Context, expr domain.Expression, env Env) (domain.Value, error) {
	switch e := expr.(type) {
	case domain.StringLiteral:
		return domain.String(e.Value), nil

	case domain.EqualsExpr:
		left, right, err := evaluatePair(ctx, e.Left, e.Right, env)
		if err != nil {
			return domain.Nothing, err
		}
		return domain.Bool(left.Equal(right)), nil

	case domain.AndExpr:
		left, right, err := evaluatePair(ctx, e.Left, e.Right, env)
		if err != nil {
			return domain.Nothing, err
		}
		return domain.Bool(left.Truthy() && right.Truthy()), nil

	case domain.OrExpr:
		left, right, err := evaluatePair(ctx, e.Left, e.Right, env)
		if err != nil {
			return domain.Nothing, err
		}
		return domain.Bool(left.Truthy() || right.Truthy()), nil

	case domain.PatternMatch:
		text, err := Evaluate(ctx, e.Text, env)
		if err != nil {
			return domain.Nothing, err
		}
		return domain.Bool(pattern.Matches(e.Pattern, text.Text())), nil

	case domain.ExtractParam:
		text, err := Evaluate(ctx, e.Text, env)
		if err != nil {
			return domain.Nothing, err
		}
		param, ok := pattern.Extract(e.Pattern, text.Text(), e.Index)
		if !ok {
			return domain.Nothing, nil
		}
		return domain.String(param), nil

	case domain.FunctionCall:
		return evaluateCall(ctx, e, env)

	default:
		return domain.Nothing, &domain.EvaluationError{Expr: expr, Err: fmt.Errorf("unsupported expression %T", expr)}
	}
}

func evaluatePair(ctx context.Context, l, r domain.Expression, env Env) (domain.Value, domain.Value, error) {
	left, err := Evaluate(ctx, l, env)
	if err != nil {
		return domain.Nothing, domain.Nothing, err
	}
	right, err := Evaluate(ctx, r, env)
	if err != nil {
		return domain.Nothing, domain.Nothing, err
	}
	return left, right, nil
}

func evaluateCall(ctx context.Context, call domain.FunctionCall, env Env) (domain.Value, error) {
	args := make([]domain.Value, len(call.Args))
	for i, a := range call.Args {
		v, err := Evaluate(ctx, a, env)
		if err != nil {
			return domain.Nothing, err
		}
		args[i] = v
	}

	var (
		result domain.Value
		err    error
	)
	switch {
	case call.Receiver == domain.ReceiverMemory:
		result, err = invokeMemory(ctx, env.Memory, call.Method, args)
	case env.Registry != nil:
		result, err = env.Registry.Invoke(ctx, call.Receiver, call.Method, args)
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnknownReceiver, call.Receiver)
	}
	if err != nil {
		var evalErr *domain.EvaluationError
		if errors.As(err, &evalErr) {
			return domain.Nothing, err
		}
		return domain.Nothing, &domain.EvaluationError{Expr: call, Err: err}
	}
	return result, nil
}

// invokeMemory maps the Memory receiver's rule-level operations onto the port.
func invokeMemory(ctx context.Context, mem ports.Memory, method string, args []domain.Value) (domain.Value, error) {
	if mem == nil {
		return domain.Nothing, fmt.Errorf("%w: %s", domain.ErrUnknownReceiver, domain.ReceiverMemory)
	}

	switch method {
	case "getStateParam":
		name, err := nameArg(args, 1)
		if err != nil {
			return domain.Nothing, err
		}
		v, _, err := mem.GetStateParam(ctx, name)
		return v, err

	case "setStateParam":
		name, err := nameArg(args, 2)
		if err != nil {
			return domain.Nothing, err
		}
		return domain.Nothing, mem.SetStateParam(ctx, name, args[1])

	case "getPreviousStateParam":
		name, err := nameArg(args, 1)
		if err != nil {
			return domain.Nothing, err
		}
		v, _, err := mem.GetPreviousStateParam(ctx, name)
		return v, err

	case "clearHistory":
		if err := registry.Arity(args, 0); err != nil {
			return domain.Nothing, err
		}
		return domain.Nothing, mem.ClearHistory(ctx)

	case "reset":
		if err := registry.Arity(args, 0); err != nil {
			return domain.Nothing, err
		}
		return domain.Nothing, mem.Reset(ctx)

	default:
		return domain.Nothing, fmt.Errorf("%w: %s.%s", domain.ErrUnknownOperation, domain.ReceiverMemory, method)
	}
}

func nameArg(args []domain.Value, arity int) (string, error) {
	if err := registry.Arity(args, arity); err != nil {
		return "", err
	}
	return registry.StringArg(args, 0)
}
