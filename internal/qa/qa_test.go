package qa

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"smart-qa/internal/cache"
	"smart-qa/internal/executor"
	"smart-qa/internal/llm"
	"smart-qa/internal/logger"
	"smart-qa/internal/retry"
)

func newTestClient(mockLLM *llm.MockClient) *Client {
	policy := retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond, Multiplier: 2.0}
	exec := executor.New(cache.NewMemoryStore(cache.Options{}), mockLLM, policy, logger.NewDiscard())
	return New(exec)
}

func TestSummarize(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockLLM.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return prompt == "Provide a concise summary of the following text:\n\nsome long document"
	})).Return("short summary", nil).Once()

	c := newTestClient(mockLLM)
	result, err := c.Summarize(context.Background(), "some long document")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "short summary" {
		t.Errorf("got %q, want %q", result, "short summary")
	}
	mockLLM.AssertExpectations(t)
}

func TestSummarizeEmptyText(t *testing.T) {
	mockLLM := new(llm.MockClient)
	c := newTestClient(mockLLM)

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		_, err := c.Summarize(context.Background(), input)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("input %q: expected ErrEmptyInput, got %v", input, err)
		}
	}
	mockLLM.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestSummarizeNormalizesWhitespaceForCaching(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything).Return("summary", nil).Once()

	c := newTestClient(mockLLM)
	ctx := context.Background()

	if _, err := c.Summarize(ctx, "hello   world"); err != nil {
		t.Fatal(err)
	}
	// Same words with different incidental formatting must be a cache hit.
	if _, err := c.Summarize(ctx, "hello\nworld  "); err != nil {
		t.Fatal(err)
	}

	mockLLM.AssertNumberOfCalls(t, "Complete", 1)
	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("expected 1 cache hit, got %+v", stats)
	}
}

func TestAsk(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockLLM.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Context:\nThe sky is blue.") &&
			strings.Contains(prompt, "Question: What color is the sky?")
	})).Return("Blue.", nil).Once()

	c := newTestClient(mockLLM)
	answer, err := c.Ask(context.Background(), "The sky is blue.", "What color is the sky?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Blue." {
		t.Errorf("got %q, want %q", answer, "Blue.")
	}
	mockLLM.AssertExpectations(t)
}

func TestAskDistinctQuestionsDistinctEntries(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything).Return("an answer", nil).Twice()

	c := newTestClient(mockLLM)
	ctx := context.Background()

	if _, err := c.Ask(ctx, "The sky is blue.", "What color is the sky?"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Ask(ctx, "The sky is blue.", "What is the sky?"); err != nil {
		t.Fatal(err)
	}

	// Two different questions against the same context are two cache entries.
	mockLLM.AssertNumberOfCalls(t, "Complete", 2)
	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 2 {
		t.Errorf("expected 0 hits and 2 misses, got %+v", stats)
	}
}

func TestAskEmptyInputs(t *testing.T) {
	mockLLM := new(llm.MockClient)
	c := newTestClient(mockLLM)
	ctx := context.Background()

	if _, err := c.Ask(ctx, "", "question"); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty context: expected ErrEmptyInput, got %v", err)
	}
	if _, err := c.Ask(ctx, "context", "  "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty question: expected ErrEmptyInput, got %v", err)
	}
}

func TestExtractEntities(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything).
		Return(`{"people":["John","Jane"],"dates":["Jan 1, 2024"],"locations":["Paris"]}`, nil).Once()

	c := newTestClient(mockLLM)
	entities, err := c.ExtractEntities(context.Background(), "John met Jane in Paris on Jan 1, 2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSlice(t, "people", entities.People, []string{"John", "Jane"})
	assertSlice(t, "dates", entities.Dates, []string{"Jan 1, 2024"})
	assertSlice(t, "locations", entities.Locations, []string{"Paris"})
}

func TestExtractEntitiesStripsCodeFences(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything).
		Return("```json\n{\"people\":[\"Ada\"],\"dates\":[],\"locations\":[]}\n```", nil).Once()

	c := newTestClient(mockLLM)
	entities, err := c.ExtractEntities(context.Background(), "Ada wrote programs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSlice(t, "people", entities.People, []string{"Ada"})
	assertSlice(t, "dates", entities.Dates, []string{})
	assertSlice(t, "locations", entities.Locations, []string{})
}

func TestExtractEntitiesMalformedResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "Sure! Here are the entities you asked for."},
		{"missing fields", `{"people":["John"]}`},
		{"wrong shape", `["John","Paris"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLLM := new(llm.MockClient)
			mockLLM.On("Complete", mock.Anything, mock.Anything).Return(tt.response, nil).Once()

			c := newTestClient(mockLLM)
			entities, err := c.ExtractEntities(context.Background(), "some text")
			if !errors.Is(err, ErrMalformedExtraction) {
				t.Fatalf("expected ErrMalformedExtraction, got %v", err)
			}
			// Recovery contract: all three fields present and empty.
			assertSlice(t, "people", entities.People, []string{})
			assertSlice(t, "dates", entities.Dates, []string{})
			assertSlice(t, "locations", entities.Locations, []string{})
		})
	}
}

func TestExtractEntitiesRemoteFailurePropagates(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything).
		Return("", &llm.Error{Kind: llm.KindAuth, Msg: "bad key"}).Once()

	c := newTestClient(mockLLM)
	_, err := c.ExtractEntities(context.Background(), "some text")

	var rcErr *executor.RemoteCallError
	if !errors.As(err, &rcErr) {
		t.Fatalf("expected RemoteCallError, got %v", err)
	}
	if errors.Is(err, ErrMalformedExtraction) {
		t.Error("remote failure must not be reported as a parse failure")
	}
}

func TestClearCache(t *testing.T) {
	mockLLM := new(llm.MockClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything).Return("summary", nil).Twice()

	c := newTestClient(mockLLM)
	ctx := context.Background()

	if _, err := c.Summarize(ctx, "text"); err != nil {
		t.Fatal(err)
	}
	if err := c.ClearCache(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := c.Summarize(ctx, "text"); err != nil {
		t.Fatal(err)
	}

	mockLLM.AssertNumberOfCalls(t, "Complete", 2)
}

func assertSlice(t *testing.T, field string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: got %v, want %v", field, got, want)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d]: got %q, want %q", field, i, got[i], want[i])
		}
	}
}
