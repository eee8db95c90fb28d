package nvidia

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"eco-report-service/llm"
)

const integrateEndpoint = "https://integrate.api.nvidia.com/v1/chat/completions"

// Sampling parameters per endpoint. Classification wants near-deterministic
// output, report writing wants some variety.
const (
	visionTemperature    = 0.2
	visionMaxTokens      = 1024
	reasoningTemperature = 0.3
	reasoningMaxTokens   = 1024
	reportTemperature    = 0.7
	reportMaxTokens      = 2048
)

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls the NVIDIA Integrate API (OpenAI-compatible chat completions)
// with bearer-token auth. One instance serves all three pipeline endpoints,
// each with its own model name.
type Client struct {
	apiKey         string
	visionModel    string
	reasoningModel string
	reportModel    string
	client         *http.Client
}

// NewClient creates a new NVIDIA Integrate API client
func NewClient(apiKey, visionModel, reasoningModel, reportModel string, timeout time.Duration) *Client {
	return &Client{
		apiKey:         apiKey,
		visionModel:    visionModel,
		reasoningModel: reasoningModel,
		reportModel:    reportModel,
		client:         &http.Client{Timeout: timeout},
	}
}

// SourceName identifies this provider in report records and logs
func (c *Client) SourceName() string {
	return "Nemotron"
}

// encodeImageToBase64 converts image bytes to a base64 data URL
func encodeImageToBase64(imageData []byte) string {
	base64Data := base64.StdEncoding.EncodeToString(imageData)
	return fmt.Sprintf("data:image/jpeg;base64,%s", base64Data)
}

// AnalyzeImage sends the image and instruction prompt to the vision model
func (c *Client) AnalyzeImage(imageData []byte, prompt string) (string, error) {
	textPrompt := TextContent{
		Type: "text",
		Text: prompt,
	}

	imagePrompt := ImageContent{
		Type: "image_url",
		ImageURL: ImageURL{
			URL: encodeImageToBase64(imageData),
		},
	}

	req := ChatRequest{
		Model: c.visionModel,
		Messages: []Message{
			{
				Role: "user",
				Content: []any{
					textPrompt,
					imagePrompt,
				},
			},
		},
		Temperature: visionTemperature,
		MaxTokens:   visionMaxTokens,
	}

	return c.chatCompletion("classify", req)
}

// Reason sends a scoring rubric prompt to the reasoning model
func (c *Client) Reason(prompt string) (string, error) {
	req := ChatRequest{
		Model: c.reasoningModel,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Temperature: reasoningTemperature,
		MaxTokens:   reasoningMaxTokens,
	}

	return c.chatCompletion("reason", req)
}

// Generate sends a writing prompt to the report model
func (c *Client) Generate(systemPrompt, userPrompt string) (string, error) {
	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: userPrompt})

	req := ChatRequest{
		Model:       c.reportModel,
		Messages:    messages,
		Temperature: reportTemperature,
		MaxTokens:   reportMaxTokens,
	}

	return c.chatCompletion("generate", req)
}

// chatCompletion performs one chat-completions round trip and extracts the
// reply text. Any transport or HTTP failure becomes a llm.RemoteCallError;
// there are no retries.
func (c *Client) chatCompletion(endpoint string, reqBody ChatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", integrateEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &llm.RemoteCallError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.RemoteCallError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &llm.RemoteCallError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API error: %s", string(body)),
		}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &llm.RemoteCallError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(chatResp.Choices) == 0 {
		return "", &llm.RemoteCallError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("no choices in response")}
	}

	// The content is usually a plain string; some models return structured
	// content parts instead.
	content := chatResp.Choices[0].Message.Content
	if contentStr, ok := content.(string); ok {
		return contentStr, nil
	}

	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}

	return string(contentJSON), nil
}
