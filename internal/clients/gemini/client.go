// Package gemini composes filing analyses and chat answers with the Google
// Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/models"
)

const (
	DefaultModel = "gemini-3-flash-preview"

	// maxSectionExcerpt bounds how much of each retrieved section lands in
	// a prompt so a few sections never blow the context window.
	maxSectionExcerpt = 8000
)

// Client implements the ComposerClient interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AnalyzeFiling composes a structured audit from retrieved filing sections.
func (c *Client) AnalyzeFiling(ctx context.Context, info *models.CompanyInfo, sections []models.SearchResult) (*models.FilingAnalysis, error) {
	c.logger.Debug().Str("model", c.model).Str("ticker", info.Ticker).Int("sections", len(sections)).Msg("Composing filing analysis")

	prompt := buildAnalysisPrompt(info, sections)
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate analysis: %w", err)
	}

	text, err := extractTextFromResponse(result)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(text)
}

// ChatStream composes an answer incrementally, invoking fn for each text
// fragment as the model produces it.
func (c *Client) ChatStream(ctx context.Context, message string, sections []models.SearchResult, history []models.ChatMessage, fn interfaces.ChunkFunc) error {
	c.logger.Debug().Str("model", c.model).Int("sections", len(sections)).Int("history", len(history)).Msg("Streaming chat answer")

	contents := buildChatContents(message, sections, history)
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, nil) {
		if err != nil {
			return fmt.Errorf("failed to stream content: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.Text == "" {
					continue
				}
				if err := fn(part.Text); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// buildChatContents assembles the conversation: grounding sections as a
// system-style preamble, prior turns, then the user's message.
func buildChatContents(message string, sections []models.SearchResult, history []models.ChatMessage) []*genai.Content {
	var sb strings.Builder
	sb.WriteString("You are a financial analyst assistant. Answer using only the filing excerpts below. Cite the section name when you draw on it.\n")
	for _, sec := range sections {
		sb.WriteString(fmt.Sprintf("\n--- %s (%s, FY%s) ---\n", sec.Name, sec.Ticker, sec.FiscalYear))
		sb.WriteString(excerpt(sec.Content))
		sb.WriteString("\n")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(sb.String(), genai.RoleUser),
		genai.NewContentFromText("Understood. I will answer from the provided filing excerpts.", genai.RoleModel),
	}

	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))
	return contents
}

// buildAnalysisPrompt creates a prompt requesting a structured JSON audit.
func buildAnalysisPrompt(info *models.CompanyInfo, sections []models.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyze the following annual filing excerpts for %s (%s)", info.Name, info.Ticker))
	if info.SICDescription != "" {
		sb.WriteString(fmt.Sprintf(", industry: %s", info.SICDescription))
	}
	sb.WriteString(".\n\nRespond with JSON only, matching this shape:\n")
	sb.WriteString(`{
  "financial_health_score": <0-100>,
  "metrics": {"<metric name>": "<value with context>"},
  "risk_factors": [{"category": "", "title": "", "description": "", "severity": "low|medium|high"}],
  "key_insights": [""],
  "recommendations": [""]
}`)
	sb.WriteString("\n\nFiling excerpts:\n")
	for _, sec := range sections {
		sb.WriteString(fmt.Sprintf("\n--- %s (FY%s) ---\n", sec.Name, sec.FiscalYear))
		sb.WriteString(excerpt(sec.Content))
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseAnalysis extracts the JSON object from a model response that may be
// wrapped in prose or code fences.
func parseAnalysis(text string) (*models.FilingAnalysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in analysis response")
	}

	var analysis models.FilingAnalysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	return &analysis, nil
}

func excerpt(content string) string {
	if len(content) > maxSectionExcerpt {
		return content[:maxSectionExcerpt]
	}
	return content
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements ComposerClient
var _ interfaces.ComposerClient = (*Client)(nil)
