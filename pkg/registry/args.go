package registry

import (
	"fmt"

	"github.com/aretw0/reflex/pkg/domain"
)

// Arity checks that exactly n arguments were supplied.
func Arity(args []domain.Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: want %d, got %d", domain.ErrArity, n, len(args))
	}
	return nil
}

// StringArg returns args[i] as a string. Non-string values are rejected.
func StringArg(args []domain.Value, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", domain.ErrArity, i)
	}
	s, ok := args[i].AsString()
	if !ok {
		return "", fmt.Errorf("%w: argument %d is %s, want string", domain.ErrInvalidArgument, i, args[i].Kind())
	}
	return s, nil
}
