package streamjson

import (
	"encoding/json"
	"fmt"
)

// ActionPayload is one entry of the payload's "suggested_actions" array.
type ActionPayload struct {
	Label    string `json:"label"`
	Action   string `json:"action"`
	Category string `json:"category,omitempty"`
}

// FinalPayload is the fully parsed response object.
type FinalPayload struct {
	Response         string          `json:"response"`
	SuggestedActions []ActionPayload `json:"suggested_actions,omitempty"`
}

// ParseFinal runs the strict parse over the complete accumulated text. A
// failure here is expected to be recoverable by falling back to
// ExtractResponse; callers must not surface it to the user.
func ParseFinal(s string) (*FinalPayload, error) {
	var payload FinalPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, fmt.Errorf("malformed final payload: %w", err)
	}
	return &payload, nil
}
