package services

import (
	"draftly-ai/internal/models"
	"draftly-ai/pkg/streamjson"
)

// DedupeSuggestedActions converts the parsed follow-up actions of one
// finalized message into the display list. Entries are deduplicated by their
// (label, action) pair; the first occurrence wins. Blank labels and blank
// actions are dropped, they cannot be rendered as clickable follow-ups.
func DedupeSuggestedActions(parsed []streamjson.ActionPayload) []models.SuggestedAction {
	if len(parsed) == 0 {
		return nil
	}
	type actionKey struct {
		label  string
		action string
	}
	seen := make(map[actionKey]bool, len(parsed))
	var actions []models.SuggestedAction
	for _, p := range parsed {
		if p.Label == "" || p.Action == "" {
			continue
		}
		key := actionKey{label: p.Label, action: p.Action}
		if seen[key] {
			continue
		}
		seen[key] = true
		actions = append(actions, models.SuggestedAction{
			Label:    p.Label,
			Action:   p.Action,
			Category: p.Category,
		})
	}
	return actions
}
