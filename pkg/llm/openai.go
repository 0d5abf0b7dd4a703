package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client              *openai.Client
	model               string
	maxCompletionTokens int
	temperature         float64
	systemPrompt        string
	responseSchema      string
}

func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	client := openai.NewClient(config.APIKey)
	model := config.Model
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAIClient{
		client:              client,
		model:               model,
		maxCompletionTokens: config.MaxCompletionTokens,
		temperature:         config.Temperature,
		systemPrompt:        config.SystemPrompt,
		responseSchema:      config.ResponseSchema,
	}, nil
}

func (c *OpenAIClient) StreamResponse(ctx context.Context, messages []Message, onDelta DeltaHandler) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	openAIMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	openAIMessages = append(openAIMessages, openai.ChatCompletionMessage{
		Role:    "system",
		Content: c.systemPrompt,
	})
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		openAIMessages = append(openAIMessages, openai.ChatCompletionMessage{
			Role:    mapRole(msg.Role),
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:               c.model,
		Messages:            openAIMessages,
		MaxCompletionTokens: c.maxCompletionTokens,
		Temperature:         float32(c.temperature),
		Stream:              true,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        "draftly-response",
				Description: "Assistant answer with optional follow-up actions",
				Schema:      json.RawMessage(c.responseSchema),
				Strict:      false,
			},
		},
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		log.Printf("StreamResponse -> err: %v", err)
		return fmt.Errorf("OpenAI API error: %v", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("OpenAI stream error: %v", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			onDelta(delta)
		}
	}
}

func (c *OpenAIClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:                c.model,
		Provider:            "openai",
		MaxCompletionTokens: c.maxCompletionTokens,
	}
}
