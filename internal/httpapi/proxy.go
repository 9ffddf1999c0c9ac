package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/blueberrycongee/semcache/internal/cacheengine"
	"github.com/blueberrycongee/semcache/internal/embedding"
	"github.com/blueberrycongee/semcache/internal/provider"
	"github.com/blueberrycongee/semcache/internal/upstream"
)

// ProxyHandler transparently proxies chat/completion requests to an LLM
// provider, short-circuiting on a semantic cache hit. It instantiates
// the engine's T = []byte path.
type ProxyHandler struct {
	cache    *cacheengine.Cache[[]byte]
	embedder embedding.Embedder
	client   upstream.Client
	provider provider.Type
	defaults provider.Defaults
	logger   *slog.Logger
}

// defaultRESTPath is the mount path used when a provider's Defaults
// leaves RESTPath empty (the Generic provider, or a custom override that
// doesn't specify one).
const defaultRESTPath = "/v1/chat/completions"

// NewProxyHandler constructs a ProxyHandler. defaults overrides (a
// zero-value field falls back to provider.DefaultsFor(p)) let a Generic
// provider or a custom prompt path be configured.
func NewProxyHandler(cache *cacheengine.Cache[[]byte], embedder embedding.Embedder, client upstream.Client, p provider.Type, overrides provider.Defaults, logger *slog.Logger) *ProxyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := provider.DefaultsFor(p)
	if overrides.UpstreamURL != "" {
		defaults.UpstreamURL = overrides.UpstreamURL
	}
	if overrides.HostHeader != "" {
		defaults.HostHeader = overrides.HostHeader
	}
	if overrides.PromptPath != "" {
		defaults.PromptPath = overrides.PromptPath
	}
	if overrides.RESTPath != "" {
		defaults.RESTPath = overrides.RESTPath
	}
	return &ProxyHandler{
		cache:    cache,
		embedder: embedder,
		client:   client,
		provider: p,
		defaults: defaults,
		logger:   logger,
	}
}

// MountPath returns the REST path this handler should be registered at,
// e.g. "/v1/messages" for Anthropic or "/v1/chat/completions" for
// OpenAI/Generic, so that NewMux actually serves each provider's own
// endpoint shape instead of assuming OpenAI's.
func (h *ProxyHandler) MountPath() string {
	if h.defaults.RESTPath != "" {
		return h.defaults.RESTPath
	}
	return defaultRESTPath
}

// ServeHTTP extracts the prompt, embeds it, consults the cache, and on
// miss forwards the request upstream and inserts the 2xx response.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read request body"}`, http.StatusBadRequest)
		return
	}

	promptPath := h.defaults.PromptPath
	if override := r.Header.Get(PromptPathHeader); override != "" {
		promptPath = override
	}

	prompt, err := ExtractPrompt(body, promptPath)
	if err != nil {
		h.logger.Warn("failed to extract prompt, bypassing cache", "error", err, "request_id", RequestIDFromContext(ctx))
		h.forwardUpstream(w, r, body)
		return
	}

	vec, err := h.embedder.Embed(ctx, prompt)
	if err != nil {
		h.logger.Error("embedding failed, bypassing cache", "error", err, "request_id", RequestIDFromContext(ctx))
		h.forwardUpstream(w, r, body)
		return
	}

	if response, ok, err := h.cache.GetIfPresent(ctx, vec); err != nil {
		h.logger.Error("cache lookup failed, bypassing cache", "error", err, "request_id", RequestIDFromContext(ctx))
	} else if ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Semcache-Hit", "true")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(response)
		return
	}

	status, respHeader, respBody := h.doUpstream(r, body)
	for k, vs := range respHeader {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Semcache-Hit", "false")
	w.WriteHeader(status)
	_, _ = w.Write(respBody)

	if status >= 200 && status < 300 {
		if _, err := h.cache.Insert(ctx, vec, respBody); err != nil {
			h.logger.Error("failed to insert response into cache", "error", err, "request_id", RequestIDFromContext(ctx))
		}
	}
}

func (h *ProxyHandler) forwardUpstream(w http.ResponseWriter, r *http.Request, body []byte) {
	status, header, respBody := h.doUpstream(r, body)
	for k, vs := range header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(respBody)
}

func (h *ProxyHandler) doUpstream(r *http.Request, body []byte) (int, http.Header, []byte) {
	upstreamHeader := prepareUpstreamHeaders(r.Header, h.defaults.HostHeader)
	resp, err := h.client.Post(r.Context(), h.provider, h.defaults.UpstreamURL, upstreamHeader, body)
	if err != nil {
		h.logger.Error("upstream request failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		return http.StatusBadGateway, http.Header{"Content-Type": []string{"application/json"}},
			[]byte(`{"error":{"message":"upstream request failed","type":"upstream_error"}}`)
	}
	return resp.StatusCode, resp.Header, resp.Body
}
