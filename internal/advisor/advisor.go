// Package advisor holds decision-source implementations. The engine works
// identically with or without one; Null is the rule-only mode.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cryptoagent/internal/core"
)

// Null never has an opinion.
type Null struct{}

func (Null) Recommend(context.Context, string, float64) (core.Recommendation, error) {
	return core.Recommendation{Action: "hold"}, nil
}

// HTTPClient asks an OpenAI-compatible chat endpoint for a strict-JSON
// trading recommendation.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey, model string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *HTTPClient) Recommend(ctx context.Context, symbol string, price float64) (core.Recommendation, error) {
	prompt := fmt.Sprintf(
		"Current %s price: %.2f USDT. Reply with strict JSON only: "+
			`{"action":"buy"|"sell"|"hold","price_from":number,"price_to":number,`+
			`"quantity_usdt":number,"confidence":number,"reasoning":"short text"}`,
		symbol, price)
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a professional crypto trader. Answer with JSON only."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return core.Recommendation{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return core.Recommendation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return core.Recommendation{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Recommendation{}, fmt.Errorf("advisor: status %d", resp.StatusCode)
	}
	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return core.Recommendation{}, err
	}
	if len(cr.Choices) == 0 {
		return core.Recommendation{}, fmt.Errorf("advisor: empty response")
	}
	return ParseRecommendation(cr.Choices[0].Message.Content)
}

// ParseRecommendation tolerates markdown fences around the JSON payload.
func ParseRecommendation(text string) (core.Recommendation, error) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
	}
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[:i]
	}
	var rec core.Recommendation
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &rec); err != nil {
		return core.Recommendation{}, fmt.Errorf("advisor: bad JSON: %w", err)
	}
	switch rec.Action {
	case "buy", "sell", "hold":
	default:
		return core.Recommendation{}, fmt.Errorf("advisor: unknown action %q", rec.Action)
	}
	return rec, nil
}
