package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/prompts"
)

// Extractor runs the vision model over an image and returns a structured
// mapping. Model-level failures (malformed output) come back inside the
// mapping; only transport errors surface as an error.
type Extractor interface {
	Extract(ctx context.Context, imagePath string, contextText string) (domain.JSONMap, error)
}

// ExtractionService calls an OpenAI-compatible vision chat endpoint to pull
// structured data out of form images.
type ExtractionService struct {
	client    *resty.Client
	model     string
	endpoint  string
	maxTokens int
}

// ExtractionConfig holds configuration for the extraction service.
type ExtractionConfig struct {
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// NewExtractionService creates a new extraction service.
func NewExtractionService(cfg *ExtractionConfig) *ExtractionService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1500
	}

	return &ExtractionService{
		client:    client,
		model:     cfg.Model,
		endpoint:  baseURL + "/chat/completions",
		maxTokens: maxTokens,
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type chatTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatImageContent struct {
	Type     string       `json:"type"`
	ImageURL chatImageURL `json:"image_url"`
}

type chatImageURL struct {
	URL string `json:"url"`
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
	} `json:"error,omitempty"`
}

// Extract sends the image at imagePath plus optional context text to the
// model and returns the parsed mapping. Unparseable model output is wrapped
// into an error-shaped mapping, not returned as an error.
func (s *ExtractionService) Extract(ctx context.Context, imagePath string, contextText string) (domain.JSONMap, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		mimeTypeForExt(filepath.Ext(imagePath)),
		base64.StdEncoding.EncodeToString(data))

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: prompts.FormExtractionSystemPrompt,
			},
			{
				Role: "user",
				Content: []interface{}{
					chatTextContent{
						Type: "text",
						Text: fmt.Sprintf(prompts.FormExtractionUserPrompt, contextText),
					},
					chatImageContent{
						Type:     "image_url",
						ImageURL: chatImageURL{URL: dataURL},
					},
				},
			},
		},
		MaxTokens: s.maxTokens,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return nil, fmt.Errorf("extraction API returned error: %s", errorMsg)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("extraction API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from extraction API (status: %d)", httpResp.StatusCode())
	}

	return ParseExtractionContent(resp.Choices[0].Message.Content), nil
}

// ParseExtractionContent leniently decodes the model's text output into a
// mapping. Code fences are stripped first; content that still is not valid
// JSON becomes an error-shaped mapping so the caller can persist it as a
// degraded-but-successful result.
func ParseExtractionContent(content string) domain.JSONMap {
	cleaned := stripCodeFence(content)

	var result domain.JSONMap
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return domain.JSONMap{
			"error":        "Invalid JSON format",
			"raw_response": content,
		}
	}
	return result
}

// stripCodeFence removes a surrounding markdown code fence, with or without
// a language tag.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		// Drop the language tag line (e.g. "json")
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func mimeTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
