package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/reflex/internal/logging"
	"github.com/aretw0/reflex/pkg/domain"
)

const (
	builtinPatternMatch = "PatternMatch"
	builtinExtractParam = "ExtractParam"
)

var (
	ruleBlock = regexp.MustCompile(`\[\s*([^\]]+?)\s*-->\s*([^\]]+?)\s*\]`)
	callHead  = regexp.MustCompile(`^([A-Za-z0-9_]+)(?:\s*\.\s*([A-Za-z0-9_]+))?\s*\(`)
)

// Parser converts rule-language source into a RuleSet.
type Parser struct {
	logger *slog.Logger
}

// Option configures the Parser.
type Option func(*Parser)

// WithLogger sets the logger used to report dropped rule blocks.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts every rule block from source.
// A malformed block is logged and skipped; the remaining blocks still parse.
// The returned error joins one *domain.ParseError per skipped block and is nil
// when every block parsed.
func (p *Parser) Parse(source string) (domain.RuleSet, error) {
	body := stripEnclosing(source)

	matches := ruleBlock.FindAllStringSubmatch(body, -1)
	rules := make(domain.RuleSet, 0, len(matches))
	var errs []error

	for i, m := range matches {
		rule, err := p.parseRule(m[1], m[2])
		if err != nil {
			perr := &domain.ParseError{Block: i, Source: m[0], Err: err}
			p.logger.Warn("Invalid rule skipped", "rule", i, "source", m[0], "err", err)
			errs = append(errs, perr)
			continue
		}
		rules = append(rules, rule)
	}

	p.logger.Debug("Rules parsed", "blocks", len(matches), "rules", len(rules), "skipped", len(errs))
	return rules, errors.Join(errs...)
}

// ParseExpression parses a single condition or action.
func (p *Parser) ParseExpression(src string) (domain.Expression, error) {
	return parseExpression(src)
}

func (p *Parser) parseRule(condSrc, actionsSrc string) (domain.Rule, error) {
	cond, err := parseExpression(condSrc)
	if err != nil {
		return domain.Rule{}, fmt.Errorf("condition: %w", err)
	}

	var actions []domain.Expression
	for _, segment := range splitTopLevel(actionsSrc, ';') {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		action, err := parseExpression(segment)
		if err != nil {
			return domain.Rule{}, fmt.Errorf("action %d: %w", len(actions), err)
		}
		actions = append(actions, action)
	}
	if len(actions) == 0 {
		return domain.Rule{}, errors.New("rule has no actions")
	}

	return domain.Rule{Condition: cond, Actions: actions}, nil
}

// stripEnclosing removes one layer of brackets around a list of rule blocks.
// A lone rule block is left untouched.
func stripEnclosing(source string) string {
	s := strings.TrimSpace(source)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return s
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" || inner[0] == '[' {
		return inner
	}
	return s
}

// parseExpression applies precedence from weakest to strongest binding:
// OR, AND, equality, then primaries.
func parseExpression(src string) (domain.Expression, error) {
	expr := strings.TrimSpace(src)
	if expr == "" {
		return nil, errors.New("empty expression")
	}

	if pos, n := findOperator(expr, "||", "OR"); pos >= 0 {
		left, right, err := parseOperands(expr[:pos], expr[pos+n:])
		if err != nil {
			return nil, err
		}
		return domain.OrExpr{Left: left, Right: right}, nil
	}

	if pos, n := findOperator(expr, "&&", "AND"); pos >= 0 {
		left, right, err := parseOperands(expr[:pos], expr[pos+n:])
		if err != nil {
			return nil, err
		}
		return domain.AndExpr{Left: left, Right: right}, nil
	}

	if eq := findEquality(expr); len(eq) > 0 {
		if len(eq) > 1 {
			return nil, fmt.Errorf("chained equality in %q", expr)
		}
		left, right, err := parseOperands(expr[:eq[0]], expr[eq[0]+2:])
		if err != nil {
			return nil, err
		}
		return domain.EqualsExpr{Left: left, Right: right}, nil
	}

	return parsePrimary(expr)
}

func parseOperands(leftSrc, rightSrc string) (domain.Expression, domain.Expression, error) {
	left, err := parseExpression(leftSrc)
	if err != nil {
		return nil, nil, err
	}
	right, err := parseExpression(rightSrc)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func parsePrimary(expr string) (domain.Expression, error) {
	if expr[0] == '"' {
		end := literalEnd(expr)
		if end < 0 {
			return nil, fmt.Errorf("unterminated string literal %s", expr)
		}
		if end != len(expr)-1 {
			return nil, fmt.Errorf("unexpected text after string literal in %s", expr)
		}
		return domain.StringLiteral{Value: unquote(expr)}, nil
	}

	head := callHead.FindStringSubmatchIndex(expr)
	if head == nil {
		return nil, fmt.Errorf("unsupported expression: %s", expr)
	}

	open := head[1] - 1
	closing := matchingParen(expr, open)
	if closing < 0 {
		return nil, fmt.Errorf("unbalanced parentheses in %s", expr)
	}
	if closing != len(expr)-1 {
		return nil, fmt.Errorf("unexpected text after call in %s", expr)
	}

	name := expr[head[2]:head[3]]
	raw := splitArgs(expr[open+1 : closing])

	if head[4] < 0 {
		return parseBuiltin(name, raw)
	}
	args, err := callArgs(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return domain.FunctionCall{
		Receiver: name,
		Method:   expr[head[4]:head[5]],
		Args:     args,
	}, nil
}

// rawArg keeps the source of an argument next to its parsed form, since
// ExtractParam's index is an integer literal rather than an expression.
type rawArg struct {
	src  string
	expr domain.Expression
	err  error
}

func (a rawArg) isInt() bool { return a.expr == nil && a.err == nil }

func splitArgs(src string) []rawArg {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	parts := splitTopLevel(src, ',')
	out := make([]rawArg, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		out[i].src = part
		if isIntLiteral(part) {
			continue
		}
		out[i].expr, out[i].err = parseExpression(part)
	}
	return out
}

func callArgs(raw []rawArg) ([]domain.Expression, error) {
	args := make([]domain.Expression, 0, len(raw))
	for i, a := range raw {
		if err := a.check(i); err != nil {
			return nil, err
		}
		args = append(args, a.expr)
	}
	return args, nil
}

func (a rawArg) check(i int) error {
	if a.err != nil {
		return fmt.Errorf("argument %d: %w", i, a.err)
	}
	if a.isInt() {
		return fmt.Errorf("%w: argument %d: unexpected integer %s", domain.ErrInvalidArgument, i, a.src)
	}
	return nil
}

func parseBuiltin(name string, raw []rawArg) (domain.Expression, error) {
	switch name {
	case builtinPatternMatch:
		if len(raw) != 2 {
			return nil, fmt.Errorf("%w: %s requires exactly 2 arguments (pattern, text), got %d", domain.ErrArity, name, len(raw))
		}
		pattern, text, err := patternAndText(name, raw)
		if err != nil {
			return nil, err
		}
		return domain.PatternMatch{Pattern: pattern, Text: text}, nil

	case builtinExtractParam:
		if len(raw) < 2 || len(raw) > 3 {
			return nil, fmt.Errorf("%w: %s requires 2 or 3 arguments (pattern, text, [index]), got %d", domain.ErrArity, name, len(raw))
		}
		pattern, text, err := patternAndText(name, raw)
		if err != nil {
			return nil, err
		}
		index := 0
		if len(raw) == 3 {
			if !raw[2].isInt() {
				return nil, fmt.Errorf("%w: %s index must be an integer literal, got %s", domain.ErrInvalidArgument, name, raw[2].src)
			}
			index, _ = strconv.Atoi(raw[2].src)
			if index < 0 {
				return nil, fmt.Errorf("%w: %s index must not be negative", domain.ErrInvalidArgument, name)
			}
		}
		return domain.ExtractParam{Pattern: pattern, Text: text, Index: index}, nil

	default:
		return nil, fmt.Errorf("unknown built-in %q", name)
	}
}

func patternAndText(name string, raw []rawArg) (string, domain.Expression, error) {
	for i := 0; i < 2; i++ {
		if err := raw[i].check(i); err != nil {
			return "", nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	pattern, err := literalPattern(name, raw[0].expr)
	if err != nil {
		return "", nil, err
	}
	return pattern, raw[1].expr, nil
}

func literalPattern(name string, arg domain.Expression) (string, error) {
	lit, ok := arg.(domain.StringLiteral)
	if !ok {
		return "", fmt.Errorf("%w: %s pattern must be a string literal", domain.ErrInvalidArgument, name)
	}
	return lit.Value, nil
}

func isIntLiteral(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
