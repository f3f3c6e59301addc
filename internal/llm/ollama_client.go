package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OllamaClient struct {
	ollamaURL string
	model     string
	client    *http.Client
}

func NewOllamaClient(url, model string) *OllamaClient {
	if model == "" {
		model = "mistral"
	}
	return &OllamaClient{
		ollamaURL: url,
		model:     model,
		client: &http.Client{
			Timeout: 600 * time.Second, // upper bound; callers pass a tighter context
		},
	}
}

func (o *OllamaClient) callOllama(ctx context.Context, prompt string) (string, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"format": "json",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.ollamaURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %s: %s", resp.Status, strings.TrimSpace(string(bodyBytes)))
	}

	fullBody := strings.TrimSpace(string(bodyBytes))
	// Streamed output arrives as one JSON chunk per line.
	if strings.Contains(fullBody, "\n") {
		return AggregateStreamedResponse(fullBody), nil
	}

	var chunk LLMResponseChunk
	if err := json.Unmarshal([]byte(fullBody), &chunk); err != nil {
		return "", err
	}
	if chunk.Response == "" {
		return "", errors.New("invalid response from Ollama")
	}
	return chunk.Response, nil
}

type LLMResponseChunk struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// AggregateStreamedResponse concatenates the "response" fields of a
// newline-delimited stream of chunks. Undecodable lines are skipped.
func AggregateStreamedResponse(body string) string {
	var builder strings.Builder
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		var chunk LLMResponseChunk
		if err := json.Unmarshal([]byte(trimmed), &chunk); err != nil {
			continue
		}
		builder.WriteString(chunk.Response)
	}
	return builder.String()
}

// Analyze sends the evaluation prompt and parses the JSON answer.
func (o *OllamaClient) Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	response, err := o.callOllama(ctx, BuildAnalysisPrompt(req))
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(response)
}
