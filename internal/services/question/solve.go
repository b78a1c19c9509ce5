package question

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcoot/warduel/internal/model"
)

// ErrUnsolvable is returned for text that is not a generated question
var ErrUnsolvable = errors.New("unsolvable question")

// Solve parses question text of the form "a op b" and returns its answer
func Solve(text string) (int, error) {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrUnsolvable, text)
	}

	left, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsolvable, text)
	}
	right, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsolvable, text)
	}

	switch parts[1] {
	case model.OperationAdd.Symbol():
		return left + right, nil
	case model.OperationSubtract.Symbol():
		return left - right, nil
	case model.OperationMultiply.Symbol(), "*", "x":
		return left * right, nil
	case model.OperationDivide.Symbol(), "/":
		if right == 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrUnsolvable)
		}
		return left / right, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrUnsolvable, parts[1])
}
