package ports

import "context"

// InterpretInput holds everything the LLM needs to narrate a fortune.
type InterpretInput struct {
	FortuneID uint64
	Rarity    string
	Question  string
	Lang      string
	Cards     []CardInput
}

// CardInput is a simplified card representation for the LLM prompt.
type CardInput struct {
	ID   int
	Name string
	Slot string
}

// InterpretOutput is the structured interpretation returned by the LLM.
type InterpretOutput struct {
	Text       string `json:"text"`
	Style      string `json:"style"`
	Disclaimer string `json:"disclaimer"`
	Model      string `json:"-"`
}

// Interpreter narrates a fortune via an LLM.
type Interpreter interface {
	Interpret(ctx context.Context, in InterpretInput) (InterpretOutput, error)
}
