package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/blueberrycongee/semcache/internal/cacheengine"
	"github.com/blueberrycongee/semcache/internal/embedding"
)

// rerankCandidateCount is how many top candidates SearchCandidates pulls
// for the optional reranker to choose among. The core's GetIfPresent
// always uses top_k=1; this is strictly a cache-aside GET affordance.
const rerankCandidateCount = 5

// CacheAsideHandler exposes the engine's T = string instantiation
// directly to callers that want to manage cache entries explicitly by
// prompt string, bypassing the provider proxy entirely. Ported from the
// original's cache_aside endpoint.
type CacheAsideHandler struct {
	cache    *cacheengine.Cache[string]
	embedder embedding.Embedder
	logger   *slog.Logger

	// rerankEnabled applies the Jaccard reranker to GET lookups by
	// pulling multiple candidates via SearchCandidates and picking the
	// best lexical match against the request's own prompt text. It is
	// disabled by default; the core engine itself never reranks.
	rerankEnabled bool
}

// NewCacheAsideHandler constructs a CacheAsideHandler.
func NewCacheAsideHandler(cache *cacheengine.Cache[string], embedder embedding.Embedder, logger *slog.Logger, rerankEnabled bool) *CacheAsideHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheAsideHandler{cache: cache, embedder: embedder, logger: logger, rerankEnabled: rerankEnabled}
}

type cacheAsideRequest struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response,omitempty"`
}

type cacheAsideResponse struct {
	Hit      bool   `json:"hit"`
	Response string `json:"response,omitempty"`
}

// Get handles GET /v1/cache-aside: looks up prompt and returns the
// cached response, if any. With rerankEnabled, it pulls several
// candidates above the configured threshold and picks the one whose
// stored response text has the highest Jaccard word overlap with the
// request's prompt; the store keeps no original prompt text, so cached
// prompts are not compared.
func (h *CacheAsideHandler) Get(w http.ResponseWriter, r *http.Request) {
	var req cacheAsideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		http.Error(w, `{"error":"prompt is required"}`, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	vec, err := h.embedder.Embed(ctx, req.Prompt)
	if err != nil {
		h.logger.Error("embedding failed", "error", err, "request_id", RequestIDFromContext(ctx))
		http.Error(w, `{"error":"embedding failed"}`, http.StatusInternalServerError)
		return
	}

	if h.rerankEnabled {
		h.getWithRerank(w, r, req.Prompt, vec)
		return
	}

	response, ok, err := h.cache.GetIfPresent(ctx, vec)
	if err != nil {
		h.logger.Error("cache-aside lookup failed", "error", err, "request_id", RequestIDFromContext(ctx))
		http.Error(w, `{"error":"cache lookup failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cacheAsideResponse{Hit: ok, Response: response})
}

func (h *CacheAsideHandler) getWithRerank(w http.ResponseWriter, r *http.Request, prompt string, vec []float32) {
	ctx := r.Context()
	_, responses, err := h.cache.SearchCandidates(ctx, vec, rerankCandidateCount)
	if err != nil {
		h.logger.Error("cache-aside candidate search failed", "error", err, "request_id", RequestIDFromContext(ctx))
		http.Error(w, `{"error":"cache lookup failed"}`, http.StatusInternalServerError)
		return
	}
	if len(responses) == 0 {
		writeJSON(w, http.StatusOK, cacheAsideResponse{Hit: false})
		return
	}

	candidates := make([]RerankCandidate, len(responses))
	for i, resp := range responses {
		candidates[i] = RerankCandidate{Prompt: resp, Response: resp}
	}
	best := Rerank(prompt, candidates)
	if best == nil {
		writeJSON(w, http.StatusOK, cacheAsideResponse{Hit: false})
		return
	}
	writeJSON(w, http.StatusOK, cacheAsideResponse{Hit: true, Response: best.Response})
}

// Put handles PUT /v1/cache-aside: stores response under prompt. It
// tries try_update first (update an existing near-exact entry in place
// without growing the store) and falls back to insert when no exact
// match exists.
func (h *CacheAsideHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req cacheAsideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		http.Error(w, `{"error":"prompt is required"}`, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	vec, err := h.embedder.Embed(ctx, req.Prompt)
	if err != nil {
		h.logger.Error("embedding failed", "error", err, "request_id", RequestIDFromContext(ctx))
		http.Error(w, `{"error":"embedding failed"}`, http.StatusInternalServerError)
		return
	}

	updated, err := h.cache.TryUpdate(ctx, vec, req.Response)
	if err != nil {
		h.logger.Error("cache-aside try_update failed", "error", err, "request_id", RequestIDFromContext(ctx))
		http.Error(w, `{"error":"cache update failed"}`, http.StatusInternalServerError)
		return
	}
	if !updated {
		if _, err := h.cache.Insert(ctx, vec, req.Response); err != nil {
			h.logger.Error("cache-aside insert failed", "error", err, "request_id", RequestIDFromContext(ctx))
			http.Error(w, `{"error":"cache insert failed"}`, http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
