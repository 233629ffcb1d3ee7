package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"smart-qa/internal/app"
	"smart-qa/internal/executor"
	"smart-qa/internal/httputil"
	"smart-qa/internal/llm"
	"smart-qa/internal/qa"
)

type summarizeRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

type askRequest struct {
	Context  string `json:"context" validate:"required,min=1"`
	Question string `json:"question" validate:"required,min=3,max=500"`
}

type extractRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	// Other processes clearing a shared cache also invalidate ours.
	go func() {
		err := deps.Broadcaster.SubscribeClear(context.Background(), func() {
			if err := deps.Cache.Clear(context.Background()); err != nil {
				deps.Log.Error("failed to clear cache on broadcast", "err", err)
			}
		})
		if err != nil {
			deps.Log.Error("clear subscription failed", "err", err)
		}
	}()

	r := httputil.NewRouter(deps.Log)

	r.Post("/api/summarize", summarizeHandler(deps))
	r.Post("/api/ask", askHandler(deps))
	r.Post("/api/extract", extractHandler(deps))
	r.Delete("/api/cache", clearCacheHandler(deps))
	r.Get("/api/stats", statsHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func summarizeHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req summarizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		summary, err := deps.QA.Summarize(r.Context(), req.Text)
		if err != nil {
			failOperation(deps, w, "summarize failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"summary": summary,
		})
	}
}

func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		answer, err := deps.QA.Ask(r.Context(), req.Context, req.Question)
		if err != nil {
			failOperation(deps, w, "ask failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"question": req.Question,
			"answer":   answer,
		})
	}
}

func extractHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		entities, err := deps.QA.ExtractEntities(r.Context(), req.Text)
		if err != nil && !errors.Is(err, qa.ErrMalformedExtraction) {
			failOperation(deps, w, "extract failed", err)
			return
		}

		body := map[string]any{"entities": entities}
		if err != nil {
			// Degraded result: empty lists plus a warning, not a failure.
			deps.Log.Warn("extraction response unparseable", "err", err)
			body["warning"] = qa.ErrMalformedExtraction.Error()
		}
		httputil.WriteJSON(w, http.StatusOK, body)
	}
}

func clearCacheHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.QA.ClearCache(r.Context()); err != nil {
			httputil.Fail(deps.Log, w, "failed to clear cache", err, http.StatusInternalServerError)
			return
		}
		if err := deps.Broadcaster.PublishClear(r.Context()); err != nil {
			deps.Log.Warn("failed to broadcast cache clear", "err", err)
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"cleared": true,
		})
	}
}

func statsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, deps.QA.Stats())
	}
}

// failOperation maps operation errors to HTTP statuses: bad input is the
// caller's fault, rate limiting is retry-later, everything else from the
// remote side is a bad gateway.
func failOperation(deps app.Deps, w http.ResponseWriter, message string, err error) {
	if errors.Is(err, qa.ErrEmptyInput) {
		httputil.Fail(deps.Log, w, message, err, http.StatusBadRequest)
		return
	}
	var rcErr *executor.RemoteCallError
	if errors.As(err, &rcErr) && rcErr.Kind() == llm.KindRateLimited {
		httputil.Fail(deps.Log, w, "remote service rate limited; retry later", err, http.StatusTooManyRequests)
		return
	}
	httputil.Fail(deps.Log, w, message, err, http.StatusBadGateway)
}
