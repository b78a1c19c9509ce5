package model

// Operation is the arithmetic family of a question
type Operation string

const (
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
	OperationMultiply Operation = "multiply"
	OperationDivide   Operation = "divide"
)

// Operations lists every operation family in generation order
var Operations = []Operation{
	OperationAdd,
	OperationSubtract,
	OperationMultiply,
	OperationDivide,
}

// Symbol returns the operator used in question text
func (o Operation) Symbol() string {
	switch o {
	case OperationAdd:
		return "+"
	case OperationSubtract:
		return "-"
	case OperationMultiply:
		return "×"
	case OperationDivide:
		return "÷"
	default:
		return "?"
	}
}

// Question is a single arithmetic problem with its integer answer
type Question struct {
	Text      string    `json:"text"`
	Answer    int       `json:"answer"`
	Operation Operation `json:"operation"`
}

// IsCorrect reports whether candidate matches the expected answer
func (q Question) IsCorrect(candidate int) bool {
	return q.Answer == candidate
}
