package question

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/warduel/internal/dependencies/random"
)

type SolveSuite struct {
	suite.Suite
}

func TestSolveSuite(t *testing.T) {
	suite.Run(t, new(SolveSuite))
}

func (s *SolveSuite) TestOperators() {
	tests := []struct {
		text string
		want int
	}{
		{"3 + 4", 7},
		{"12 - 5", 7},
		{"6 × 9", 54},
		{"28 ÷ 4", 7},
		{"6 * 7", 42},
		{"20 / 5", 4},
	}

	for _, tt := range tests {
		s.Run(tt.text, func() {
			got, err := Solve(tt.text)
			s.Require().NoError(err)
			s.Equal(tt.want, got)
		})
	}
}

func (s *SolveSuite) TestRejectsGarbage() {
	for _, text := range []string{"", "3 +", "three + 4", "3 % 4", "3 ÷ 0", "1 + 2 + 3"} {
		_, err := Solve(text)
		s.ErrorIs(err, ErrUnsolvable, text)
	}
}

func (s *SolveSuite) TestSolvesGeneratedQuestions() {
	gen := New(DefaultRanges(), random.New())
	for _, q := range gen.Generate(200) {
		got, err := Solve(q.Text)
		s.Require().NoError(err, q.Text)
		s.Equal(q.Answer, got, q.Text)
	}
}
