package groq

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"

	"reelcraft/internal/llm"
)

var _ llm.Client = (*Client)(nil)

// Client generates script batches through the Groq chat completion API.
type Client struct {
	client *groq.Client
	model  groq.ChatModel
}

func NewClient(apiKey, model string) (*Client, error) {
	client, err := groq.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}
	return &Client{
		client: client,
		model:  groq.ChatModel(model),
	}, nil
}

func (c *Client) GenerateScripts(ctx context.Context, systemPrompt, userPrompt string) ([]llm.ScriptCandidate, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt},
			{Role: groq.RoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty response")
	}

	return llm.ParseCandidates(content)
}
