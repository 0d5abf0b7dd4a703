package dtos

type StreamResponse struct {
	Event string      `json:"event"` // sse-connected, heartbeat, ai-response-delta, ai-response, ai-response-error, response-cancelled
	Data  interface{} `json:"data,omitempty"`
}
