package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"smart-qa/internal/cache"
	"smart-qa/internal/llm"
	"smart-qa/internal/retry"
)

// Operation identifies which domain operation a request belongs to.
// It is part of the fingerprint, so the same text summarized and
// extracted produces two distinct cache entries.
type Operation string

const (
	OpSummarize Operation = "summarize"
	OpAsk       Operation = "ask"
	OpExtract   Operation = "extract_entities"
)

// Fingerprint derives the deterministic cache key for an operation and
// its normalized input.
func Fingerprint(op Operation, input string) string {
	h := sha256.Sum256([]byte(string(op) + "\n" + input))
	return string(op) + ":" + hex.EncodeToString(h[:])
}

// RemoteCallError reports that the remote call failed terminally, either
// by exhausting retry attempts or by hitting a non-retryable failure.
type RemoteCallError struct {
	Op       Operation
	Attempts int // 0 when the failure was terminal before exhaustion
	Err      error
}

func (e *RemoteCallError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("remote call failed for %s after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("remote call failed for %s: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// Kind exposes the underlying failure classification so the CLI can
// distinguish rate limiting from other failures.
func (e *RemoteCallError) Kind() llm.Kind {
	return llm.KindOf(e.Err)
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	RemoteCalls int64 `json:"remote_calls"`
}

// Executor composes the cache store and retry policy around the remote
// LLM call.
type Executor struct {
	store  cache.Store
	client llm.Client
	policy retry.Policy
	log    *slog.Logger

	group       singleflight.Group
	hits        atomic.Int64
	misses      atomic.Int64
	remoteCalls atomic.Int64
}

func New(store cache.Store, client llm.Client, policy retry.Policy, log *slog.Logger) *Executor {
	return &Executor{
		store:  store,
		client: client,
		policy: policy,
		log:    log,
	}
}

// Execute returns the remote result for (op, input), serving it from the
// cache when possible. input is the normalized fingerprint input; prompt
// is the full instruction sent to the model on a miss. Cache backend
// failures degrade to "no caching for this call" and never block the
// request. Concurrent requests for the same fingerprint coalesce into a
// single remote call.
func (e *Executor) Execute(ctx context.Context, op Operation, input, prompt string) (string, error) {
	key := Fingerprint(op, input)
	log := e.log.With("op", string(op), "request_id", uuid.NewString())

	if entry, err := e.store.Get(ctx, key); err != nil {
		log.Warn("cache read failed; proceeding without cache", "err", err)
	} else if entry != nil {
		var result string
		if uerr := json.Unmarshal(entry.Result, &result); uerr == nil {
			e.hits.Add(1)
			log.Info("cache hit")
			return result, nil
		} else {
			log.Warn("cached entry undecodable; treating as miss", "err", uerr)
		}
	}

	e.misses.Add(1)
	log.Info("cache miss; calling remote service")

	v, err, _ := e.group.Do(key, func() (any, error) {
		result, err := retry.Do(ctx, e.policy, func() (string, error) {
			e.remoteCalls.Add(1)
			return e.client.Complete(ctx, prompt)
		})
		if err != nil {
			return "", err
		}

		payload, merr := json.Marshal(result)
		if merr != nil {
			log.Warn("failed to encode result, skipping cache", "err", merr)
			return result, nil
		}
		if perr := e.store.Put(ctx, key, cache.NewEntry(payload)); perr != nil {
			// Log cache write failure but don't fail the request
			log.Warn("cache write failed", "err", perr)
		}
		return result, nil
	})
	if err != nil {
		rcErr := &RemoteCallError{Op: op, Err: err}
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			rcErr.Attempts = exhausted.Attempts
		}
		log.Error("remote call failed", "kind", string(rcErr.Kind()), "attempts", rcErr.Attempts, "err", err)
		return "", rcErr
	}
	return v.(string), nil
}

// ClearCache empties the store. Backend errors here are surfaced, not
// absorbed: a clear that cannot complete is an operator problem.
func (e *Executor) ClearCache(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	e.log.Info("cache cleared")
	return nil
}

// Stats reports hit/miss/remote-call counters since construction.
func (e *Executor) Stats() Stats {
	return Stats{
		Hits:        e.hits.Load(),
		Misses:      e.misses.Load(),
		RemoteCalls: e.remoteCalls.Load(),
	}
}
