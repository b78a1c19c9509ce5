package question

import (
	"fmt"

	"github.com/mcoot/warduel/internal/dependencies/random"
	"github.com/mcoot/warduel/internal/model"
)

// Ranges bounds the operands for each operation family
type Ranges struct {
	MinNumber         int `yaml:"min_number" env:"MIN_NUMBER"`
	MaxNumber         int `yaml:"max_number" env:"MAX_NUMBER"`
	MultiplicationMin int `yaml:"multiplication_min" env:"MULTIPLICATION_MIN"`
	MultiplicationMax int `yaml:"multiplication_max" env:"MULTIPLICATION_MAX"`
	DivisionMin       int `yaml:"division_min" env:"DIVISION_MIN"`
	DivisionMax       int `yaml:"division_max" env:"DIVISION_MAX"`
}

// DefaultRanges returns the standard operand ranges
func DefaultRanges() Ranges {
	return Ranges{
		MinNumber:         1,
		MaxNumber:         20,
		MultiplicationMin: 1,
		MultiplicationMax: 10,
		DivisionMin:       1,
		DivisionMax:       10,
	}
}

// Validate checks that every range is usable
func (r Ranges) Validate() error {
	if r.MinNumber > r.MaxNumber {
		return fmt.Errorf("min_number %d exceeds max_number %d", r.MinNumber, r.MaxNumber)
	}
	if r.MultiplicationMin > r.MultiplicationMax {
		return fmt.Errorf("multiplication_min %d exceeds multiplication_max %d", r.MultiplicationMin, r.MultiplicationMax)
	}
	if r.DivisionMin > r.DivisionMax {
		return fmt.Errorf("division_min %d exceeds division_max %d", r.DivisionMin, r.DivisionMax)
	}
	if r.DivisionMin < 1 {
		return fmt.Errorf("division_min must be at least 1, got %d", r.DivisionMin)
	}
	return nil
}

// Generator produces random arithmetic questions
type Generator struct {
	ranges Ranges
	random random.Random
}

// New creates a Generator
func New(ranges Ranges, rnd random.Random) *Generator {
	return &Generator{
		ranges: ranges,
		random: rnd,
	}
}

// Generate returns count questions with uniformly chosen operations
func (g *Generator) Generate(count int) []model.Question {
	questions := make([]model.Question, 0, max(count, 0))
	for i := 0; i < count; i++ {
		op := model.Operations[g.random.Intn(len(model.Operations))]
		questions = append(questions, g.generate(op))
	}
	return questions
}

func (g *Generator) generate(op model.Operation) model.Question {
	switch op {
	case model.OperationSubtract:
		a := random.Between(g.random, g.ranges.MinNumber, g.ranges.MaxNumber)
		b := random.Between(g.random, g.ranges.MinNumber, g.ranges.MaxNumber)
		larger, smaller := max(a, b), min(a, b)
		return newQuestion(op, larger, smaller, larger-smaller)
	case model.OperationMultiply:
		a := random.Between(g.random, g.ranges.MultiplicationMin, g.ranges.MultiplicationMax)
		b := random.Between(g.random, g.ranges.MultiplicationMin, g.ranges.MultiplicationMax)
		return newQuestion(op, a, b, a*b)
	case model.OperationDivide:
		// Pick the quotient first so the division is always exact
		answer := random.Between(g.random, g.ranges.DivisionMin, g.ranges.DivisionMax)
		divisor := random.Between(g.random, g.ranges.DivisionMin, g.ranges.DivisionMax)
		return newQuestion(op, answer*divisor, divisor, answer)
	default:
		a := random.Between(g.random, g.ranges.MinNumber, g.ranges.MaxNumber)
		b := random.Between(g.random, g.ranges.MinNumber, g.ranges.MaxNumber)
		return newQuestion(model.OperationAdd, a, b, a+b)
	}
}

func newQuestion(op model.Operation, left, right, answer int) model.Question {
	return model.Question{
		Text:      fmt.Sprintf("%d %s %d", left, op.Symbol(), right),
		Answer:    answer,
		Operation: op,
	}
}
