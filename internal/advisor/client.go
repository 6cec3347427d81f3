// Package advisor talks to the hosted model behind the chatbot and the
// audit advisory text. Every operation demands a JSON reply, parses it into
// a typed result, and rejects replies that break the response contract, so
// callers never see free-form model output.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

// Config carries the connection settings for the hosted model.
type Config struct {
	APIKey      string
	BaseURL     string // empty means the public OpenAI endpoint
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client is the advisory model client.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewClient builds a client for the configured endpoint. An OpenAI-compatible
// BaseURL (a local gateway, or another provider's shim) is supported so the
// tools are not tied to one vendor.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("advisor API key is required (set OPENAI_API_KEY)")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}, nil
}

// OpenAI exposes the underlying connection for components that need raw
// chat completions against the same endpoint, like the PDF statement reader.
func (c *Client) OpenAI() *openai.Client {
	return c.client
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Advise answers one business or tax question. Off-topic questions come back
// with the guardrail rejection rather than an error.
func (c *Client) Advise(ctx context.Context, question string) (*BusinessAdvice, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is empty")
	}

	c.logger.Debug("requesting advice", zap.Int("question_length", len(question)))

	var advice BusinessAdvice
	if err := c.complete(ctx, adviceSystemPrompt, buildAdvicePrompt(question), &advice); err != nil {
		return nil, err
	}

	c.logger.Info("advice received",
		zap.String("advice_type", advice.AdviceType),
		zap.Float64("relevance_score", advice.RelevanceScore))
	return &advice, nil
}

// ReviewAssessment asks the model for advisory text around an assessment the
// engine already computed. The numbers in the returned text are the engine's;
// the model is told not to recompute them.
func (c *Client) ReviewAssessment(ctx context.Context, table string, metrics tax.Metrics, report *tax.Report) (*AssessmentReview, error) {
	if report == nil {
		return nil, errors.New("assessment report is required")
	}

	c.logger.Debug("requesting assessment review",
		zap.String("status", report.Status.String()),
		zap.String("variance", report.Variance.String()))

	var review AssessmentReview
	if err := c.complete(ctx, reviewSystemPrompt, buildReviewPrompt(table, metrics, report), &review); err != nil {
		return nil, err
	}

	c.logger.Info("assessment review received",
		zap.Int("recommendation_length", len(review.ComplianceRecommendation)))
	return &review, nil
}

// AnalyzeBusiness produces the seven-part monthly business analysis.
func (c *Client) AnalyzeBusiness(ctx context.Context, in AnalysisInput) (*BusinessAnalysis, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis input: %w", err)
	}

	c.logger.Debug("requesting business analysis", zap.String("industry", in.Industry))

	var analysis BusinessAnalysis
	if err := c.complete(ctx, analysisSystemPrompt, buildAnalysisPrompt(in), &analysis); err != nil {
		return nil, err
	}

	c.logger.Info("business analysis received",
		zap.Int("recommendations", len(analysis.ActionableAdvice)))
	return &analysis, nil
}

// validator lets complete run the response contract check for each reply
// type.
type validator interface {
	Validate() error
}

// complete sends one system+user exchange, demands a JSON object back, and
// parses it into out. Replies wrapped in markdown fences or prose are
// salvaged with a brace scan before giving up.
func (c *Client) complete(ctx context.Context, system, user string, out validator) error {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.logger.Error("advisory request failed", zap.Error(err))
		return fmt.Errorf("advisory request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("advisory request returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		salvaged := extractJSON(content)
		if salvaged == "" || json.Unmarshal([]byte(salvaged), out) != nil {
			c.logger.Error("failed to parse advisory reply",
				zap.Error(err),
				zap.String("content", content))
			return fmt.Errorf("failed to parse advisory reply: %w", err)
		}
		c.logger.Info("salvaged JSON from fenced advisory reply")
	}

	if err := out.Validate(); err != nil {
		c.logger.Error("advisory reply violates response contract",
			zap.Error(err),
			zap.String("content", content))
		return fmt.Errorf("advisory reply violates response contract: %w", err)
	}
	return nil
}

// extractJSON returns the first balanced JSON object in content, skipping
// markdown fences and prose around it. Empty string means none was found.
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
