// Package gemini implements the structured-parse boundary on the Gemini
// generateContent API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gl "google.golang.org/api/generativelanguage/v1beta"
	goption "google.golang.org/api/option"

	"housetab/internal/core"
	"housetab/internal/smart"
)

type Client struct {
	svc   *gl.Service
	model string
	now   func() time.Time
}

var _ smart.Parser = (*Client)(nil)

// New creates a Gemini-backed parser. The model name is the full resource
// name, e.g. "models/gemini-2.5-flash".
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("missing Gemini model name")
	}

	svc, err := gl.NewService(ctx, goption.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create generative language service: %w", err)
	}

	return &Client{svc: svc, model: model, now: time.Now}, nil
}

// responseSchema constrains the model to the exact ParseResult shape.
func responseSchema() *gl.Schema {
	return &gl.Schema{
		Type: "OBJECT",
		Properties: map[string]gl.Schema{
			"item":   {Type: "STRING"},
			"amount": {Type: "NUMBER"},
			"date":   {Type: "STRING"},
			"payer":  {Type: "STRING", Enum: []string{string(core.PayerSelf), string(core.PayerOther)}},
			"kind":   {Type: "STRING", Enum: []string{string(core.KindDebt), string(core.KindRepayment)}},
		},
		Required: []string{"item", "amount", "date", "payer", "kind"},
	}
}

func buildPrompt(input, today string) string {
	return fmt.Sprintf(`User Input: %q

Current Date: %s
Context: This is a two-party household expense ledger between the user (SELF) and the other household member (OTHER).
Common items: 餐費 (Meals), 家用費 (Household), 其他 (Others).

Tasks:
1. Extract the item name (default to '%s' if unclear).
2. Extract the amount (number).
3. Determine the date formatted as YYYY-MM-DD. "Yesterday" means %s minus 1 day.
4. Determine who paid (SELF or OTHER).
   - If the text says "I paid" or "owed me", it is SELF.
   - If the text says the other person paid or "I owe them", it is OTHER.
5. Determine the kind: if money is being returned/settled it is REPAYMENT; a new purchase or loan is DEBT.

Output JSON only.`, input, today, core.DefaultItemLabel, today)
}

func (c *Client) Parse(ctx context.Context, freeText string) (core.ParseResult, error) {
	if strings.TrimSpace(freeText) == "" {
		return core.ParseResult{}, smart.ErrUnparseable
	}

	today := c.now().Format(core.DateLayout)
	req := &gl.GenerateContentRequest{
		Contents: []*gl.Content{{
			Role:  "user",
			Parts: []*gl.Part{{Text: buildPrompt(freeText, today)}},
		}},
		GenerationConfig: &gl.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}

	resp, err := c.svc.Models.GenerateContent(c.model, req).Context(ctx).Do()
	if err != nil {
		return core.ParseResult{}, fmt.Errorf("generate content: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		slog.WarnContext(ctx, "Gemini returned no text candidate", "model", c.model)
		return core.ParseResult{}, smart.ErrUnparseable
	}

	var res core.ParseResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		slog.WarnContext(ctx, "Gemini response is not valid JSON", "error", err, "model", c.model)
		return core.ParseResult{}, smart.ErrUnparseable
	}

	return res, nil
}

func firstText(resp *gl.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}
