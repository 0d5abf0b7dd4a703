package constants

// QuickAction is a predefined trigger that starts a generation on the user's
// behalf. DisplayLabel is what appears as the user's message in the
// transcript; BackendInstruction is the prompt-engineering text actually sent
// to the model. The two are deliberately distinct so instruction text never
// leaks into the visible conversation.
type QuickAction struct {
	Key                string `json:"key"`
	DisplayLabel       string `json:"display_label"`
	BackendInstruction string `json:"-"`
	Category           string `json:"category"`
}

var quickActions = []QuickAction{
	{
		Key:                "summarize",
		DisplayLabel:       "Summarize this email",
		BackendInstruction: "Summarize the email thread below in at most five bullet points. Lead with the single most important point, and call out any explicit asks or deadlines. Email thread:",
		Category:           "read",
	},
	{
		Key:                "correct",
		DisplayLabel:       "Correct my draft",
		BackendInstruction: "Correct the spelling, grammar and punctuation of the draft below. Keep the author's wording and tone; change nothing that is not an error. Return the corrected draft in full. Draft:",
		Category:           "edit",
	},
	{
		Key:                "polish",
		DisplayLabel:       "Improve the tone",
		BackendInstruction: "Rewrite the draft below so it reads politely and professionally while preserving its meaning and approximate length. Return the rewritten draft in full. Draft:",
		Category:           "edit",
	},
	{
		Key:                "reply",
		DisplayLabel:       "Draft a reply",
		BackendInstruction: "Draft a reply to the email below. Address every question or request it contains. If information needed for the reply is missing, leave a clearly marked placeholder rather than inventing it. Email:",
		Category:           "compose",
	},
	{
		Key:                "translate",
		DisplayLabel:       "Translate to English",
		BackendInstruction: "Translate the email below into English. Preserve formatting, greetings and sign-offs. If it is already in English, say so and return it unchanged. Email:",
		Category:           "read",
	},
}

// QuickActions returns the full catalogue in display order.
func QuickActions() []QuickAction {
	out := make([]QuickAction, len(quickActions))
	copy(out, quickActions)
	return out
}

// QuickActionByKey looks up one action; ok is false for unknown keys.
func QuickActionByKey(key string) (QuickAction, bool) {
	for _, qa := range quickActions {
		if qa.Key == key {
			return qa, true
		}
	}
	return QuickAction{}, false
}
