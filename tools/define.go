package tools

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ToolError carries the failure of a tool body out through genkit, which
// prefixes action errors with its own context
type ToolError struct {
	Err error
}

func (e *ToolError) Error() string {
	return e.Err.Error()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Define registers a text-producing tool with genkit. genkit decodes the
// arguments into In; the `validate` tags of In are checked before run.
func Define[In any](gk *genkit.Genkit, name, description string, run func(ctx context.Context, in In) (string, error)) *ai.ToolDef[In, string] {
	return genkit.DefineTool[In, string](gk, name, description,
		func(ctx *ai.ToolContext, input In) (string, error) {
			if err := ValidateStruct(input); err != nil {
				return "", &ToolError{Err: err}
			}
			out, err := run(ctx, input)
			if err != nil {
				return "", &ToolError{Err: err}
			}
			return out, nil
		})
}
