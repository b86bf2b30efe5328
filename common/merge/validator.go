package merge

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// ValidationResult reports whether a merge looks safe. OK=false is a
// non-fatal data-loss warning: the generation still completes, the counts
// are attached to the progress event for observability.
type ValidationResult struct {
	OK              bool   `json:"ok"`
	Message         string `json:"message,omitempty"`
	ParentFileCount int    `json:"parent_file_count"`
	NewFileCount    int    `json:"new_file_count"`
	MergedFileCount int    `json:"merged_file_count"`
}

// Validator evaluates the data-loss warning policy. The policy is a CEL
// expression over parent_count, new_count and merged_count rather than a
// hard-coded threshold; the default 80% rule is a heuristic, not derived
// from a formal guarantee.
type Validator struct {
	expression string
	program    cel.Program
}

// NewValidator compiles the warning expression once
func NewValidator(expression string) (*Validator, error) {
	env, err := cel.NewEnv(
		cel.Variable("parent_count", cel.IntType),
		cel.Variable("new_count", cel.IntType),
		cel.Variable("merged_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL env: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile warn expression %q: %w", expression, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create CEL program: %w", err)
	}

	return &Validator{
		expression: expression,
		program:    program,
	}, nil
}

// Validate evaluates the policy against the merge counts
func (v *Validator) Validate(parentCount, newCount, mergedCount int) (ValidationResult, error) {
	result := ValidationResult{
		OK:              true,
		ParentFileCount: parentCount,
		NewFileCount:    newCount,
		MergedFileCount: mergedCount,
	}

	out, _, err := v.program.Eval(map[string]interface{}{
		"parent_count": int64(parentCount),
		"new_count":    int64(newCount),
		"merged_count": int64(mergedCount),
	})
	if err != nil {
		return result, fmt.Errorf("evaluate warn expression: %w", err)
	}

	flagged, ok := out.Value().(bool)
	if !ok {
		return result, fmt.Errorf("warn expression did not return boolean, got %T", out.Value())
	}

	if flagged {
		result.OK = false
		result.Message = fmt.Sprintf(
			"possible data loss: parent has %d files, generator returned %d, merged set has %d",
			parentCount, newCount, mergedCount,
		)
	}

	return result, nil
}

// Expression returns the configured policy expression
func (v *Validator) Expression() string {
	return v.expression
}
