// Package qa exposes the three domain operations backed by the remote
// model: summarization, context-grounded question answering, and
// structured entity extraction.
package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"smart-qa/internal/executor"
)

// ErrMalformedExtraction signals that the model's extraction output could
// not be parsed into the structured record. The operation recovers by
// returning empty lists alongside this error rather than crashing.
var ErrMalformedExtraction = errors.New("extraction response is not valid structured output")

// ErrEmptyInput rejects blank operation inputs before any remote call.
var ErrEmptyInput = errors.New("input cannot be empty")

// Entities is the structured extraction result. Order follows first
// occurrence in the source text; duplicates are kept as the model
// returns them.
type Entities struct {
	People    []string `json:"people"`
	Dates     []string `json:"dates"`
	Locations []string `json:"locations"`
}

// Client is the operation layer over the request executor.
type Client struct {
	exec *executor.Executor
}

func New(exec *executor.Executor) *Client {
	return &Client{exec: exec}
}

// normalize collapses runs of whitespace so incidental formatting
// differences fingerprint identically.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Summarize returns a concise summary of text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	norm := normalize(text)
	if norm == "" {
		return "", fmt.Errorf("text: %w", ErrEmptyInput)
	}
	prompt := "Provide a concise summary of the following text:\n\n" + norm
	return c.exec.Execute(ctx, executor.OpSummarize, norm, prompt)
}

// Ask answers a question based only on the provided context. Context and
// question are both part of the fingerprint, so a different question
// against the same context is a separate cache entry.
func (c *Client) Ask(ctx context.Context, contextText, question string) (string, error) {
	normCtx := normalize(contextText)
	if normCtx == "" {
		return "", fmt.Errorf("context: %w", ErrEmptyInput)
	}
	normQ := normalize(question)
	if normQ == "" {
		return "", fmt.Errorf("question: %w", ErrEmptyInput)
	}

	// Unit separator keeps the (context, question) concatenation stable
	// and unambiguous: moving text between the two parts changes the key.
	input := normCtx + "\x1f" + normQ

	prompt := fmt.Sprintf(`Based ONLY on the following context, answer the question.
If the answer is not in the context, say "I cannot answer based on the provided context."

Context:
%s

Question: %s

Answer:`, normCtx, normQ)

	return c.exec.Execute(ctx, executor.OpAsk, input, prompt)
}

// ExtractEntities pulls people, dates and locations out of text. When the
// model output cannot be decoded, the returned Entities has empty lists
// and the error wraps ErrMalformedExtraction.
func (c *Client) ExtractEntities(ctx context.Context, text string) (Entities, error) {
	norm := normalize(text)
	if norm == "" {
		return emptyEntities(), fmt.Errorf("text: %w", ErrEmptyInput)
	}

	prompt := fmt.Sprintf(`Extract the following entities from the text and return ONLY a JSON object:
- people: list of person names
- dates: list of dates mentioned
- locations: list of locations

Text:
%s

Return ONLY valid JSON, no markdown formatting.`, norm)

	raw, err := c.exec.Execute(ctx, executor.OpExtract, norm, prompt)
	if err != nil {
		return emptyEntities(), err
	}
	return parseEntities(raw)
}

// parseEntities decodes the model output into the three-field record.
// All three fields must be present; missing fields are a parse failure,
// not silently-defaulted empties.
func parseEntities(raw string) (Entities, error) {
	cleaned := stripCodeFences(raw)

	var decoded struct {
		People    *[]string `json:"people"`
		Dates     *[]string `json:"dates"`
		Locations *[]string `json:"locations"`
	}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return emptyEntities(), fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	if decoded.People == nil || decoded.Dates == nil || decoded.Locations == nil {
		return emptyEntities(), fmt.Errorf("%w: missing entity fields", ErrMalformedExtraction)
	}
	return Entities{
		People:    nonNil(*decoded.People),
		Dates:     nonNil(*decoded.Dates),
		Locations: nonNil(*decoded.Locations),
	}, nil
}

// stripCodeFences removes a surrounding markdown code block, which models
// emit despite being told not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func emptyEntities() Entities {
	return Entities{People: []string{}, Dates: []string{}, Locations: []string{}}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ClearCache removes all cached results.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.exec.ClearCache(ctx)
}

// Stats reports cache hit/miss counters.
func (c *Client) Stats() executor.Stats {
	return c.exec.Stats()
}
