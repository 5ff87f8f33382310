package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const requestTimeout = 30 * time.Second

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client      *openai.Client
	model       string
	visionModel string
}

// NewClient creates a chat client against the given base URL (NVIDIA NIM,
// OpenAI proper, or any compatible server).
func NewClient(baseURL, apiKey, model, visionModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		visionModel: visionModel,
	}
}

// Complete sends the transcript and the exposed tool definitions to the
// model and returns its message: plain content, or tool calls.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAI(messages),
		Temperature: 0.5,
		TopP:        1,
		MaxTokens:   1024,
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty choices")
	}

	msg := fromOpenAI(resp.Choices[0].Message)
	log.Printf("[llm] response: content_len=%d tool_calls=%d", len(msg.Content), len(msg.ToolCalls))
	return &msg, nil
}

// AnalyzeImage asks the multimodal model to describe an image by URL.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   1536,
	})
	if err != nil {
		return "", fmt.Errorf("image analysis: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("image analysis: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAI(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		om := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, om)
	}
	return out
}

func fromOpenAI(m openai.ChatCompletionMessage) Message {
	msg := Message{
		Role:    m.Role,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg
}
