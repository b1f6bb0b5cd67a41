package groq

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Client talks to an OpenAI-compatible chat completions endpoint (Groq by default).
// It satisfies prose.Generator.
type Client struct {
	client *resty.Client
	model  string
}

func NewClient(baseURL, apiKey, model string) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetAuthToken(apiKey)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Content-Type", "application/json")

	return &Client{client: client, model: model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var result chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: 0.7,
			MaxTokens:   200,
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", errors.Wrap(err, "groq request failed")
	}
	if resp.IsError() {
		return "", errors.Errorf("groq API error: %d - %s", resp.StatusCode(), resp.String())
	}
	if len(result.Choices) == 0 {
		return "", errors.New("empty response from groq")
	}
	return result.Choices[0].Message.Content, nil
}
