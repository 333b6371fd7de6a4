package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"insights/internal/core"
)

// stripFences removes a surrounding markdown code block, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeIntent parses model output into a validated intent.
func decodeIntent(text string) (core.Intent, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return core.Intent{}, fmt.Errorf("%w: empty model output", ErrIntentParsing)
	}

	var intent core.Intent
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		return core.Intent{}, fmt.Errorf("%w: output is not valid JSON: %w (output: %.200s)", ErrIntentParsing, err, cleaned)
	}
	intent.Kind = core.IntentKind(strings.ToLower(strings.TrimSpace(string(intent.Kind))))
	if err := intent.Validate(); err != nil {
		return core.Intent{}, fmt.Errorf("%w: %w", ErrIntentParsing, err)
	}
	return intent, nil
}
