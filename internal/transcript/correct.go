package transcript

import (
	"context"
	"log/slog"
	"strings"
)

// Corrector runs substitutions, the optional grammar pass, and first-letter casing.
type Corrector struct {
	Tables  func() Table
	Grammar Grammar
	Logger  *slog.Logger
}

// Correct applies the corrector's current table and grammar collaborator.
func (c Corrector) Correct(ctx context.Context, text string) string {
	var table Table
	if c.Tables != nil {
		table = c.Tables()
	}
	return Correct(ctx, text, table, c.Grammar, c.Logger)
}

// Correct trims text, applies table substitutions in order, runs grammar when
// set, and upper-cases the first letter. Empty input yields "".
//
// Grammar failures keep the substituted text.
func Correct(ctx context.Context, text string, table Table, grammar Grammar, logger *slog.Logger) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = table.Apply(text)

	if grammar != nil {
		checked, err := grammar.Check(ctx, text)
		switch {
		case err != nil:
			if logger != nil {
				logger.Warn("grammar check failed; keeping substituted text", "error", err.Error())
			}
		case strings.TrimSpace(checked) != "":
			text = checked
		}
	}

	return CapitalizeFirst(text)
}
