package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vox/fault"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Client is an OpenAI-compatible chat-completions client. Credentials
// and endpoint come from the settings store at construction time and
// are never written anywhere by this package.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) Rewrite(ctx context.Context, text string, preset Preset) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: preset.systemPrompt()},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.JoinPath(c.baseURL, "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: bad base URL %q", fault.ErrNetwork, c.baseURL)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fault.FromTransport(err)
	}
	defer resp.Body.Close()

	var cResp chatResponse
	dec := json.NewDecoder(resp.Body)
	if resp.StatusCode != http.StatusOK {
		detail := "no detail"
		if dec.Decode(&cResp) == nil && cResp.Error != nil {
			detail = cResp.Error.Message
		}
		return "", fault.FromStatus(resp.StatusCode, detail)
	}
	if err := dec.Decode(&cResp); err != nil {
		return "", fmt.Errorf("%w: response parse: %v", fault.ErrModel, err)
	}
	if cResp.Error != nil {
		return "", fmt.Errorf("%w: %s", fault.ErrModel, cResp.Error.Message)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", fault.ErrModel)
	}

	return strings.TrimSpace(cResp.Choices[0].Message.Content), nil
}

// CheckCredentials issues a cheap authenticated request so setup and
// diagnostics can verify the key without burning tokens on a rewrite.
func (c *Client) CheckCredentials(ctx context.Context) error {
	u, err := url.JoinPath(c.baseURL, "/models")
	if err != nil {
		return fmt.Errorf("%w: bad base URL %q", fault.ErrNetwork, c.baseURL)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.FromTransport(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fault.FromStatus(resp.StatusCode, resp.Status)
	}
	return nil
}
