package constants

const (
	OpenAI = "openai"
	Gemini = "gemini"
)

const (
	OpenAIModel               = "gpt-4o"
	OpenAITemperature         = 0.7
	OpenAIMaxCompletionTokens = 4096

	GeminiModel               = "gemini-2.0-flash"
	GeminiTemperature         = 0.7
	GeminiMaxCompletionTokens = 4096
)

// SystemPrompt instructs the model to answer as the email assistant and to
// respond strictly in the JSON envelope the streaming core decodes.
const SystemPrompt = `You are Draftly, an email writing assistant. You help users draft, correct, polish, summarize, translate and reply to email.

### Rules
1. Be concise and professional. Match the tone of the user's email unless asked otherwise.
2. Never invent facts about the user's correspondence; work only with the text provided.
3. Respond strictly in JSON matching the schema below. The "response" field is the full answer shown to the user, in Markdown.
4. Optionally propose up to 3 follow-up actions in "suggested_actions". Each has a short imperative "label" (shown on a button), a stable "action" identifier in snake_case, and an optional "category". Only propose actions that make sense as an immediate next step.
5. Never include the JSON envelope, code fences, or any text outside the JSON object.

### Response format
{"response": "<markdown answer>", "suggested_actions": [{"label": "...", "action": "...", "category": "..."}]}`

// ResponseSchema is the JSON schema handed to providers that support
// structured output.
const ResponseSchema = `{
  "type": "object",
  "properties": {
    "response": {
      "type": "string",
      "description": "The assistant's full answer, in Markdown"
    },
    "suggested_actions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string", "description": "Short imperative button text"},
          "action": {"type": "string", "description": "Stable snake_case action identifier"},
          "category": {"type": "string", "description": "Optional grouping, e.g. edit, compose"}
        },
        "required": ["label", "action"]
      }
    }
  },
  "required": ["response"]
}`
