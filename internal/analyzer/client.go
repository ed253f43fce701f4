package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/metrics"
	"github.com/and161185/nutrikeeper/internal/model"
)

// Config configures the OpenAI-compatible provider client.
type Config struct {
	BaseURL string        // e.g. https://api.openai.com
	APIKey  string        // bearer key
	Model   string        // chat model name
	Timeout time.Duration // per call, including queueing on the limiter
	RPS     float64       // provider calls per second, <= 0 disables throttling
	Burst   int
}

// Client calls a chat-completions endpoint with vision input.
type Client struct {
	cfg  Config
	http *http.Client
	lim  *rate.Limiter
	log  *zap.Logger
}

var _ Analyzer = (*Client)(nil)

// NewClient constructs a provider client.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		if cfg.Burst <= 0 {
			cfg.Burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		lim:  lim,
		log:  log,
	}
}

const systemPrompt = `You are a nutrition estimator. Look at the meal photos and/or description and answer with JSON only, no markdown.
Schema:
{"title": string, "total_kcal": number, "portion_weight_grams": number, "portion_weight_oz": number,
 "cooking_method": one of [raw, boiled, steamed, fried, deep_fried, grilled, baked, roasted, stewed, sauteed, smoked, other],
 "macros": {"protein_g": number, "fat_g": number, "carbohydrates_g": number, "sugar_g": number, "fiber_g": number, "salt_g": number, "water_g": number},
 "satiety_hours": number, "ingredients": [string]}`

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the input to the provider and normalizes its answer.
func (c *Client) Analyze(ctx context.Context, in Input) (Analysis, error) {
	if in.Empty() {
		return Analysis{}, errs.ErrNoInputProvided
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	content, err := c.complete(ctx, in)
	if err != nil {
		metrics.ObserveAnalyzer("error", time.Since(start))
		c.log.Warn("analyzer call failed", zap.Error(err), zap.Duration("dur", time.Since(start)))
		return Analysis{}, fmt.Errorf("%w: %v", errs.ErrAnalyzerUnavailable, err)
	}

	a := Parse(content)
	outcome := "ok"
	switch {
	case a.Empty():
		outcome = "empty"
	case !a.Parsed:
		outcome = "unparsed"
	}
	metrics.ObserveAnalyzer(outcome, time.Since(start))
	return a, nil
}

// Parse turns the provider's message content into an Analysis. Non-JSON
// content is kept verbatim under the "raw" key.
func Parse(content string) Analysis {
	content = stripFences(content)
	if content == "" {
		return Analysis{}
	}
	var doc model.Document
	if err := json.Unmarshal([]byte(content), &doc); err != nil || doc == nil {
		return Analysis{Raw: model.Document{"raw": content}}
	}
	if len(doc) == 0 {
		return Analysis{}
	}
	return Analysis{Raw: doc, Suggestion: Normalize(doc), Parsed: true}
}

func (c *Client) complete(ctx context.Context, in Input) (string, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return "", fmt.Errorf("throttled: %w", err)
	}

	parts := make([]contentPart, 0, len(in.Images)+1)
	text := strings.TrimSpace(in.Text)
	if text == "" {
		text = "Estimate the nutrition of the meal in the photos."
	}
	parts = append(parts, contentPart{Type: "text", Text: text})
	for _, img := range in.Images {
		if len(img.Data) == 0 {
			continue
		}
		ct := img.ContentType
		if ct == "" {
			ct = http.DetectContentType(img.Data)
		}
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)},
		})
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: parts},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("provider status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
