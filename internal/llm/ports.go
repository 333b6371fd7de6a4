// Package llm holds the language collaborators around the router: one turns
// a question into a core.Intent, the other turns a routed result into prose.
package llm

import (
	"context"
	"errors"

	"insights/internal/core"
)

var (
	// ErrIntentParsing marks model output that is not a usable intent.
	ErrIntentParsing = errors.New("intent parsing failed")
	// ErrAnswerGeneration marks failures to render an answer.
	ErrAnswerGeneration = errors.New("answer generation failed")
)

type (
	IntentParser interface {
		ParseIntent(ctx context.Context, question string) (core.Intent, error)
	}

	AnswerGenerator interface {
		GenerateAnswer(ctx context.Context, question string, intent core.Intent, result core.RoutedResult) (string, error)
	}
)
