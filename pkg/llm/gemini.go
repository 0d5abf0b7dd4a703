package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client              *genai.Client
	model               string
	maxCompletionTokens int
	temperature         float64
	systemPrompt        string
}

func NewGeminiClient(config Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &GeminiClient{
		client:              client,
		model:               config.Model,
		maxCompletionTokens: config.MaxCompletionTokens,
		temperature:         config.Temperature,
		systemPrompt:        config.SystemPrompt,
	}, nil
}

func (c *GeminiClient) StreamResponse(ctx context.Context, messages []Message, onDelta DeltaHandler) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	model := c.client.GenerativeModel(c.model)
	maxTokens := int32(c.maxCompletionTokens)
	model.MaxOutputTokens = &maxTokens
	model.SetTemperature(float32(c.temperature))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(c.systemPrompt)},
	}

	// Gemini chat sessions take history plus one final user part.
	session := model.StartChat()
	var lastUser string
	for i, msg := range messages {
		if msg.Content == "" {
			continue
		}
		role := "user"
		if mapRole(msg.Role) == "assistant" {
			role = "model"
		}
		if i == len(messages)-1 && role == "user" {
			lastUser = msg.Content
			continue
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	if lastUser == "" {
		return fmt.Errorf("gemini requires a trailing user message")
	}

	iter := session.SendMessageStream(ctx, genai.Text(lastUser))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("StreamResponse -> gemini err: %v", err)
			return fmt.Errorf("gemini stream error: %v", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if text, ok := part.(genai.Text); ok && text != "" {
					onDelta(string(text))
				}
			}
		}
	}
}

func (c *GeminiClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:                c.model,
		Provider:            "gemini",
		MaxCompletionTokens: c.maxCompletionTokens,
	}
}
